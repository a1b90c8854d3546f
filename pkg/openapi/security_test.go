// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openapi

import (
	"testing"

	"github.com/tombee/apiwire/pkg/httpsettings"
)

func strptr(s string) *string { return &s }

func TestSchemeCheck(t *testing.T) {
	withAuth := &httpsettings.Config{Auth: &httpsettings.BasicAuth{User: "alice", Password: "pw"}}
	withKey := &httpsettings.Config{APIKey: strptr("key")}
	withCookie := &httpsettings.Config{Cookies: map[string]string{"session": "abc"}}
	empty := &httpsettings.Config{}

	tests := []struct {
		name   string
		scheme *SecurityScheme
		cfg    *httpsettings.Config
		want   bool
	}{
		{"basic with auth", &SecurityScheme{Kind: SchemeBasic}, withAuth, true},
		{"basic without auth", &SecurityScheme{Kind: SchemeBasic}, empty, false},
		{"bearer with auth", &SecurityScheme{Kind: SchemeBearer}, withAuth, true},
		{"bearer without auth", &SecurityScheme{Kind: SchemeBearer}, empty, false},
		{"api key present", &SecurityScheme{Kind: SchemeAPIKey, KeyName: "X-Key"}, withKey, true},
		{"api key absent", &SecurityScheme{Kind: SchemeAPIKey, KeyName: "X-Key"}, empty, false},
		{"cookie present", &SecurityScheme{Kind: SchemeCookie, CookieName: "session"}, withCookie, true},
		{"cookie name mismatch", &SecurityScheme{Kind: SchemeCookie, CookieName: "other"}, withCookie, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scheme.Check(tt.cfg); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSatisfiesEmptyAlternatives(t *testing.T) {
	if !Satisfies(SecurityAlternatives{}, &httpsettings.Config{}) {
		t.Error("empty alternatives must always be satisfied")
	}
	if !Satisfies(nil, &httpsettings.Config{}) {
		t.Error("nil alternatives must always be satisfied")
	}
}

func TestSatisfiesDNF(t *testing.T) {
	schemeA := &SecurityScheme{Name: "basic", Kind: SchemeBasic}
	schemeB := &SecurityScheme{Name: "key", Kind: SchemeAPIKey, KeyName: "X-Key"}
	schemeC := &SecurityScheme{Name: "cookie", Kind: SchemeCookie, CookieName: "session"}

	// [[A,B],[C]] is (A AND B) OR C.
	alts := SecurityAlternatives{{schemeA, schemeB}, {schemeC}}

	tests := []struct {
		name string
		cfg  *httpsettings.Config
		want bool
	}{
		{
			"A and B",
			&httpsettings.Config{
				Auth:   &httpsettings.BasicAuth{User: "u", Password: "p"},
				APIKey: strptr("k"),
			},
			true,
		},
		{
			"only A",
			&httpsettings.Config{Auth: &httpsettings.BasicAuth{User: "u", Password: "p"}},
			false,
		},
		{
			"only C",
			&httpsettings.Config{Cookies: map[string]string{"session": "abc"}},
			true,
		},
		{"nothing", &httpsettings.Config{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Satisfies(alts, tt.cfg); got != tt.want {
				t.Errorf("Satisfies() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSatisfiedAlternativeReturnsFirstMatch(t *testing.T) {
	schemeA := &SecurityScheme{Name: "basic", Kind: SchemeBasic}
	schemeB := &SecurityScheme{Name: "key", Kind: SchemeAPIKey}
	cfg := &httpsettings.Config{
		Auth:   &httpsettings.BasicAuth{User: "u", Password: "p"},
		APIKey: strptr("k"),
	}

	alts := SecurityAlternatives{{schemeB}, {schemeA}}
	combination := satisfiedAlternative(alts, cfg)
	if len(combination) != 1 || combination[0] != schemeB {
		t.Errorf("satisfiedAlternative() = %v, want first matching combination", combination)
	}
}
