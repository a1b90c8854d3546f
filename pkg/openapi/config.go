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

// ParameterLocation is where an encoded parameter is placed on the wire.
type ParameterLocation int

const (
	// LocationPath substitutes into the path template.
	LocationPath ParameterLocation = iota
	// LocationQuery appends to the query string.
	LocationQuery
	// LocationHeader sets a request header.
	LocationHeader
)

// String returns the OpenAPI name of the location.
func (l ParameterLocation) String() string {
	switch l {
	case LocationPath:
		return "path"
	case LocationQuery:
		return "query"
	case LocationHeader:
		return "header"
	default:
		return "unknown"
	}
}

// Format is the encoding applied to each scalar or binary leaf before
// placement.
type Format int

const (
	// FormatString uses the value's natural string representation.
	FormatString Format = iota
	// FormatHex encodes the value's bytes as lower-case hex pairs, no prefix.
	FormatHex
	// FormatBase64 encodes the value's bytes as standard base64.
	FormatBase64
	// FormatBase64url encodes the value's bytes as unpadded URL-safe base64.
	FormatBase64url
	// FormatBinary passes raw bytes through. Only valid for body
	// placement, never for path, query, or header parameters.
	FormatBinary
)

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case FormatString:
		return "string"
	case FormatHex:
		return "hex"
	case FormatBase64:
		return "base64"
	case FormatBase64url:
		return "base64url"
	case FormatBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Style is the RFC 6570 expansion mode governing delimiter and prefix
// choice when serializing composite values.
type Style int

const (
	// StyleSimple expands {X}: bare value, elements joined with ",".
	StyleSimple Style = iota
	// StyleLabel expands {.X}: "." prefix, elements joined with ".".
	StyleLabel
	// StyleForm expands {?X}: key=value query pairs.
	StyleForm
	// StyleMatrix expands {;X}: ";ident=" prefix path segments.
	StyleMatrix
)

// String returns the RFC 6570 name of the style.
func (s Style) String() string {
	switch s {
	case StyleSimple:
		return "simple"
	case StyleLabel:
		return "label"
	case StyleForm:
		return "form"
	case StyleMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// RequestPartWhole is the field identifier representing the entire
// binary-encoded request object.
const RequestPartWhole = "*"

// BinaryContentType is the Content-Type set on assembled binary bodies
// when the endpoint settings do not supply one.
const BinaryContentType = "application/x-openapi-binary"

// Parameter describes one declared call parameter.
type Parameter struct {
	// Location selects path, query, or header placement.
	Location ParameterLocation

	// Ident is the parameter identifier used on the wire.
	Ident string

	// Field is the dotted path into the caller's request object that
	// supplies the value. RequestPartWhole (or an empty string) selects
	// the whole binary-encoded request.
	Field string

	// DefaultValue is used verbatim when the value provider reports the
	// value as absent.
	DefaultValue string

	// Format is the leaf encoding applied before placement.
	Format Format

	// Style is the RFC 6570 expansion mode.
	Style Style

	// Explode expands composite values into one occurrence per element
	// instead of a single joined value.
	Explode bool

	// Required marks parameters whose absence (with no default) fails
	// the assembly.
	Required bool
}

// Path describes one remote method: its URI suffix template, HTTP
// method, declared parameters, and security override.
type Path struct {
	// Path is the URI suffix template, e.g. "/tiles/{tileId}".
	Path string

	// HTTPMethod is the HTTP verb. Empty defaults to POST.
	HTTPMethod string

	// Parameters maps parameter identifier to its declaration.
	Parameters map[string]Parameter

	// BodyRequestObject transfers the binary-encoded request object as
	// the request body. Ignored for GET.
	BodyRequestObject bool

	// Security overrides the global default for this method. nil means
	// inherit the default; a non-nil empty list means no security
	// required.
	Security SecurityAlternatives
}

// Method returns the effective HTTP method.
func (p *Path) Method() string {
	if p.HTTPMethod == "" {
		return "POST"
	}
	return p.HTTPMethod
}

// Config is the protocol-level contract produced by the OpenAPI
// document parser and consumed by the request assembler.
type Config struct {
	// BaseURL is the server base (scheme, host, optional port and base
	// path) that method path templates append to.
	BaseURL string

	// MethodPath maps remote method names to their path configuration.
	MethodPath map[string]Path

	// SecuritySchemes holds the declared schemes by name.
	SecuritySchemes map[string]*SecurityScheme

	// DefaultSecurity applies to methods without their own override.
	// Empty means no authentication required.
	DefaultSecurity SecurityAlternatives
}
