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

// Package openapi turns OpenAPI-described remote-method invocations into
// wire-ready HTTP request descriptors.
//
// The package consumes the configuration structures produced by an
// external OpenAPI document parser (Config, Path, Parameter, security
// schemes) and a caller-supplied value provider that resolves dotted
// field paths against the caller's own object model. It encodes typed
// parameter values into path segments, query pairs, and headers per
// their declared RFC 6570 style and format, evaluates
// disjunctive-normal-form security requirements against the endpoint
// settings resolved by httpsettings, and emits a Request descriptor for
// an injectable Transport.
//
// The package is not an HTTP client and knows nothing about payload
// serialization: bodies are opaque byte blobs supplied by the value
// provider under the "*" field.
package openapi
