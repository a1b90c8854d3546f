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

// Package secrets resolves keychain references to literal secrets
// through the OS secret store.
//
// Every backend call runs with a bounded wait: a call that does not
// return within the timeout resolves to the zero value instead of
// blocking the request that needed it. Callers must treat an empty
// result as "unresolved", never as "resolved to empty".
package secrets

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tombee/apiwire/internal/log"
	"github.com/tombee/apiwire/pkg/errors"
)

// DefaultTimeout bounds every secret-store backend call.
const DefaultTimeout = time.Minute

// Backend is the OS-level secret store. Implementations must be safe
// for concurrent use; the provider may run overlapping calls.
type Backend interface {
	// Name returns the backend identifier for error reporting.
	Name() string

	// Get retrieves the password stored for (service, user).
	Get(service, user string) (string, error)

	// Set stores a password for (service, user).
	Set(service, user, password string) error

	// Delete removes the entry for (service, user).
	Delete(service, user string) error
}

// Provider resolves named secrets with a bounded wait per call.
// Timeouts are soft: the operation logs a warning and reports absence.
// Any other backend failure is a hard error.
type Provider struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithBackend sets the secret-store backend. Default: the OS keyring.
func WithBackend(b Backend) Option {
	return func(p *Provider) { p.backend = b }
}

// WithTimeout overrides the per-call backend deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithLogger sets the logger. Default: slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a Provider backed by the OS keyring unless
// overridden via options.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		backend: NewKeyringBackend(),
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load resolves the secret stored for (service, user). A backend
// timeout yields an empty string and a nil error.
func (p *Provider) Load(ctx context.Context, service, user string) (string, error) {
	p.logger.Debug("loading secret", log.ServiceKey, service, log.UserKey, user)

	value, err := runBounded(ctx, p, "load", service, user, func() (string, error) {
		return p.backend.Get(service, user)
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return "", err
		}
		return "", &errors.BackendError{Backend: p.backend.Name(), Op: "load", Cause: err}
	}
	return value, nil
}

// Store saves a secret for (service, user) and returns the effective
// service id. An empty service generates a fresh one so the caller can
// persist the reference. A backend timeout yields an empty string and a
// nil error.
func (p *Provider) Store(ctx context.Context, service, user, password string) (string, error) {
	effective := service
	if effective == "" {
		effective = "service password " + randomServiceID()
	}

	p.logger.Debug("storing secret", log.ServiceKey, effective, log.UserKey, user)

	_, err := runBounded(ctx, p, "store", effective, user, func() (string, error) {
		return "", p.backend.Set(effective, user, password)
	})
	if err != nil {
		if errors.Is(err, errTimedOut) {
			return "", nil
		}
		return "", &errors.BackendError{Backend: p.backend.Name(), Op: "store", Cause: err}
	}
	return effective, nil
}

// Remove deletes the secret stored for (service, user) and reports
// whether an entry was removed. A missing entry and a backend timeout
// both report false without an error.
func (p *Provider) Remove(ctx context.Context, service, user string) (bool, error) {
	p.logger.Debug("removing secret", log.ServiceKey, service, log.UserKey, user)

	_, err := runBounded(ctx, p, "remove", service, user, func() (string, error) {
		return "", p.backend.Delete(service, user)
	})
	if err != nil {
		if errors.Is(err, errTimedOut) || errors.IsNotFound(err) {
			return false, nil
		}
		return false, &errors.BackendError{Backend: p.backend.Name(), Op: "remove", Cause: err}
	}
	return true, nil
}

// errTimedOut marks a bounded call that hit its deadline. It never
// escapes the provider; Load folds it into the soft empty result and
// Store/Remove fold it into their zero values.
var errTimedOut = errors.New("secret operation timed out")

type outcome struct {
	value string
	err   error
}

// runBounded dispatches op on its own goroutine and waits at most the
// provider timeout. The result channel is buffered so an abandoned call
// can still complete and exit; the backend call itself is not
// interruptible.
func runBounded(ctx context.Context, p *Provider, opName, service, user string, op func() (string, error)) (string, error) {
	done := make(chan outcome, 1)
	go func() {
		value, err := op()
		done <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case result := <-done:
		if result.err != nil {
			return "", result.err
		}
		return result.value, nil
	case <-timer.C:
		terr := &errors.TimeoutError{Operation: "secret " + opName, Duration: p.timeout}
		p.logger.Warn("secret store timed out, treating secret as unresolved",
			log.ServiceKey, service, log.UserKey, user, "error", terr)
		if opName == "load" {
			return "", nil
		}
		return "", errTimedOut
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// randomServiceID generates a short random identifier for secrets
// stored without an explicit service name.
func randomServiceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
