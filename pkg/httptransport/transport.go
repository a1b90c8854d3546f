// Package httptransport adapts the standard library HTTP client to the
// Transport interface consumed by the openapi request assembler.
//
// The adapter stays deliberately small: request assembly, settings
// resolution, and credential handling all happen upstream. What remains
// here is connection management with secure defaults:
//   - TLS 1.2 minimum, TLS 1.3 preferred
//   - Connection pooling with sensible limits
//   - Per-request proxy support from the assembled descriptor
//   - User-Agent header injection
//
// Example usage:
//
//	client := openapi.NewClient(cfg,
//	    openapi.WithTransport(httptransport.New(httptransport.DefaultConfig())))
package httptransport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/tombee/apiwire/pkg/openapi"
)

// Config holds the transport configuration.
type Config struct {
	// Timeout bounds each request end to end.
	// Default: 30 seconds.
	Timeout time.Duration

	// UserAgent is set on requests that do not carry one.
	UserAgent string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		UserAgent: "apiwire/1.0",
	}
}

// Client executes assembled request descriptors over net/http.
type Client struct {
	cfg    Config
	direct *http.Client
}

// New creates a transport with the given configuration.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		direct: &http.Client{Transport: newPooledTransport(cfg, nil), Timeout: cfg.Timeout},
	}
}

// Do executes one assembled request and reads the full response body.
func (c *Client) Do(ctx context.Context, req *openapi.Request) (*openapi.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.FullURL(), body)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", req.URL, err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			hreq.Header.Add(key, value)
		}
	}
	if hreq.Header.Get("User-Agent") == "" && c.cfg.UserAgent != "" {
		hreq.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	client, err := c.clientFor(req)
	if err != nil {
		return nil, err
	}

	hresp, err := client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", req.URL, err)
	}

	return &openapi.Response{
		StatusCode: hresp.StatusCode,
		Header:     hresp.Header,
		Body:       data,
	}, nil
}

// clientFor returns the shared direct client, or a proxied one when the
// descriptor carries proxy settings. Proxy configuration is per URL
// pattern, so proxied clients are built per request rather than pooled.
func (c *Client) clientFor(req *openapi.Request) (*http.Client, error) {
	if req.Proxy == nil {
		return c.direct, nil
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(req.Proxy.Host, fmt.Sprintf("%d", req.Proxy.Port)),
	}
	if req.Proxy.User != "" {
		proxyURL.User = url.UserPassword(req.Proxy.User, req.Proxy.Password)
	}

	return &http.Client{
		Transport: newPooledTransport(c.cfg, http.ProxyURL(proxyURL)),
		Timeout:   c.cfg.Timeout,
	}, nil
}

func newPooledTransport(cfg Config, proxy func(*http.Request) (*url.URL, error)) *http.Transport {
	return &http.Transport{
		Proxy: proxy,

		// TLS configuration: 1.2 minimum, 1.3 preferred
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
		},

		// Connection pooling settings
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		// Timeouts
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
