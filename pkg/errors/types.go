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

package errors

import (
	"fmt"
	"time"
)

// ConfigError represents settings-file problems.
// Use this for malformed settings entries, missing required fields,
// or unparseable YAML.
type ConfigError struct {
	// Key identifies the entry or field that has the problem
	// (e.g., "entries[2].url", "basic-auth")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource does not exist: an unknown remote
// method, an unresolvable parameter field, or a missing keychain entry.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "method", "field", "secret")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError represents parameter encoding failures.
// Use this for unsupported value kinds, format/location mismatches,
// or a missing required value with no declared default.
type ValidationError struct {
	// Field identifies which parameter or field failed
	Field string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("encoding failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("encoding failed: %s", e.Message)
}

// BackendError represents secret-store backend failures that are not
// timeouts. These are hard failures and propagate to the caller.
type BackendError struct {
	// Backend is the backend identifier (e.g., "keyring")
	Backend string

	// Op is the operation that failed (e.g., "load", "store", "remove")
	Op string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("secret backend %s: %s failed: %v", e.Backend, e.Op, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *BackendError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents operation timeouts.
// Secret resolution converts these to absence rather than propagating
// them; they exist so that conversion sites can log a typed value.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "secret load")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Operation, e.Duration)
}

// StatusError represents a non-success HTTP response from the transport.
type StatusError struct {
	// Method is the remote method name that was invoked
	Method string

	// URL is the request URL
	URL string

	// StatusCode is the HTTP status code
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("method %s: %s returned HTTP %d", e.Method, e.URL, e.StatusCode)
}
