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
	"github.com/tombee/apiwire/pkg/httpsettings"
)

// SchemeKind discriminates the closed set of security scheme variants.
type SchemeKind int

const (
	// SchemeBasic requires basic-auth credentials.
	SchemeBasic SchemeKind = iota
	// SchemeAPIKey requires an API key, placed in a header or query
	// parameter named by KeyName.
	SchemeAPIKey
	// SchemeCookie requires a named cookie.
	SchemeCookie
	// SchemeBearer requires a bearer token, supplied through the same
	// auth channel as basic credentials and distinguished only by
	// Authorization-header formatting.
	SchemeBearer
)

// String returns the OpenAPI name of the scheme kind.
func (k SchemeKind) String() string {
	switch k {
	case SchemeBasic:
		return "basic"
	case SchemeAPIKey:
		return "apiKey"
	case SchemeCookie:
		return "cookie"
	case SchemeBearer:
		return "bearer"
	default:
		return "unknown"
	}
}

// SecurityScheme is one declared scheme. The variant set is closed, so
// it is a tagged struct rather than an interface hierarchy.
type SecurityScheme struct {
	// Name is the scheme's declaration name in the OpenAPI document.
	Name string

	// Kind selects the variant.
	Kind SchemeKind

	// Location is where an API key is placed (header or query).
	// Only meaningful for SchemeAPIKey.
	Location ParameterLocation

	// KeyName is the header or query parameter carrying the API key.
	// Only meaningful for SchemeAPIKey.
	KeyName string

	// CookieName is the cookie carrying the credential.
	// Only meaningful for SchemeCookie.
	CookieName string
}

// Check reports whether the resolved endpoint configuration satisfies
// this scheme. Placement details play no role here; they matter only
// when credentials are applied to an assembled request.
func (s *SecurityScheme) Check(cfg *httpsettings.Config) bool {
	switch s.Kind {
	case SchemeBasic, SchemeBearer:
		return cfg.Auth != nil
	case SchemeAPIKey:
		return cfg.APIKey != nil
	case SchemeCookie:
		_, ok := cfg.Cookies[s.CookieName]
		return ok
	default:
		return false
	}
}

// SecurityAlternatives is the disjunctive normal form of required
// schemes: the outer list is OR, each inner list is AND. An empty outer
// list means no security is required.
type SecurityAlternatives [][]*SecurityScheme

// Satisfies reports whether the configuration meets at least one
// alternative, or trivially when none are declared.
func Satisfies(alternatives SecurityAlternatives, cfg *httpsettings.Config) bool {
	if len(alternatives) == 0 {
		return true
	}
	return satisfiedAlternative(alternatives, cfg) != nil
}

// satisfiedAlternative returns the first AND-combination whose schemes
// all pass, or nil.
func satisfiedAlternative(alternatives SecurityAlternatives, cfg *httpsettings.Config) []*SecurityScheme {
	for _, combination := range alternatives {
		passed := true
		for _, scheme := range combination {
			if !scheme.Check(cfg) {
				passed = false
				break
			}
		}
		if passed {
			return combination
		}
	}
	return nil
}
