package httptransport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/tombee/apiwire/pkg/openapi"
)

func TestDoSendsDescriptor(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotQuery  url.Values
		gotHeader http.Header
		gotBody   []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	}))
	defer server.Close()

	req := &openapi.Request{
		Method: "POST",
		URL:    server.URL + "/tiles/7",
		Query:  url.Values{"lang": []string{"en"}},
		Header: http.Header{"X-Trace": []string{"abc"}},
		Body:   []byte("payload"),
	}

	client := New(DefaultConfig())
	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if string(resp.Body) != "pong" {
		t.Errorf("Body = %q, want pong", resp.Body)
	}
	if gotMethod != "POST" || gotPath != "/tiles/7" {
		t.Errorf("server saw %s %s", gotMethod, gotPath)
	}
	if gotQuery.Get("lang") != "en" {
		t.Errorf("query = %v", gotQuery)
	}
	if gotHeader.Get("X-Trace") != "abc" {
		t.Errorf("header X-Trace = %q", gotHeader.Get("X-Trace"))
	}
	if gotHeader.Get("User-Agent") != "apiwire/1.0" {
		t.Errorf("User-Agent = %q, want injected default", gotHeader.Get("User-Agent"))
	}
	if string(gotBody) != "payload" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestDoKeepsCallerUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	req := &openapi.Request{
		Method: "GET",
		URL:    server.URL,
		Header: http.Header{"User-Agent": []string{"custom/2.0"}},
	}
	if _, err := New(DefaultConfig()).Do(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if gotUA != "custom/2.0" {
		t.Errorf("User-Agent = %q, want caller value kept", gotUA)
	}
}

func TestDoReturnsNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	req := &openapi.Request{Method: "GET", URL: server.URL}
	resp, err := New(DefaultConfig()).Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Do() error = %v, want status passed through", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", resp.StatusCode)
	}
}

func TestDoContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &openapi.Request{Method: "GET", URL: server.URL}
	if _, err := New(DefaultConfig()).Do(ctx, req); err == nil {
		t.Fatal("Do() error = nil, want context cancellation")
	}
}
