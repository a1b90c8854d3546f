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
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/tombee/apiwire/internal/log"
	"github.com/tombee/apiwire/pkg/errors"
	"github.com/tombee/apiwire/pkg/httpsettings"
	"github.com/tombee/apiwire/pkg/secrets"
)

// Request is the assembled descriptor handed to the transport. The URL
// carries the substituted path; the query fragment is kept separate so
// the transport controls final encoding.
type Request struct {
	// Method is the HTTP verb.
	Method string

	// URL is the absolute URL with the path template substituted,
	// without the query string.
	URL string

	// Query is the accumulated query fragment.
	Query url.Values

	// Header is the accumulated header set, cookies already folded in.
	Header http.Header

	// Proxy carries resolved proxy settings, nil when none apply.
	// Password holds the literal secret; keychain references are
	// resolved during assembly.
	Proxy *httpsettings.Proxy

	// Body is the request body, nil for body-less requests.
	Body []byte
}

// FullURL returns the URL with the encoded query string appended.
func (r *Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	return r.URL + "?" + r.Query.Encode()
}

// Response is the transport's answer to an assembled request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport executes an assembled request descriptor. The concrete HTTP
// stack stays outside this package; httptransport provides a default.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// ValueFunc resolves a declared parameter to its typed value. The
// parameter's Field carries the dotted path into the caller's request
// object; RequestPartWhole (or an empty field) selects the entire
// binary-encoded request. Returning Absent() triggers the declared
// default.
type ValueFunc func(p *Parameter) (Value, error)

// Client assembles wire-ready requests for the remote methods declared
// in an OpenAPI Config. Each call is independent; the client keeps no
// per-call state.
type Client struct {
	config    Config
	settings  *httpsettings.Store
	secrets   *secrets.Provider
	transport Transport
	logger    *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSettings supplies a pre-loaded settings store. Default: a store
// loaded once from HTTP_SETTINGS_FILE at construction.
func WithSettings(store *httpsettings.Store) ClientOption {
	return func(c *Client) { c.settings = store }
}

// WithSecrets supplies the secret provider used to resolve keychain
// references.
func WithSecrets(provider *secrets.Provider) ClientOption {
	return func(c *Client) { c.secrets = provider }
}

// WithTransport supplies the transport used by Call.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) { c.transport = t }
}

// WithClientLogger sets the logger. Default: slog.Default.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the given configuration. Without
// options, endpoint settings load once from HTTP_SETTINGS_FILE (a load
// failure is logged and leaves the client with no overrides, per the
// fail-closed settings contract) and secrets resolve through the OS
// keyring.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	c := &Client{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.settings == nil {
		store := httpsettings.NewStore(c.logger)
		// Error detail is logged by Load; an aborted load leaves the
		// store empty and the client proceeds without overrides.
		_ = store.Load()
		c.settings = store
	}
	if c.secrets == nil {
		c.secrets = secrets.NewProvider(secrets.WithLogger(c.logger))
	}
	return c
}

// Assemble produces the request descriptor for a named remote method.
// The returned bool is the advisory security verdict: false means the
// declared security requirement is not satisfied by the resolved
// endpoint configuration. Assembly still completes; enforcement is the
// caller's choice. Encoding and configuration failures are hard errors.
func (c *Client) Assemble(ctx context.Context, method string, resolve ValueFunc) (*Request, bool, error) {
	path, ok := c.config.MethodPath[method]
	if !ok {
		return nil, false, &errors.NotFoundError{Resource: "method", ID: method}
	}

	req := &Request{
		Method: path.Method(),
		Query:  url.Values{},
		Header: http.Header{},
	}

	pathTemplate := path.Path
	for _, ident := range sortedParameterIdents(path.Parameters) {
		param := path.Parameters[ident]
		value, err := resolve(&param)
		if err != nil {
			return nil, false, errors.Wrapf(err, "resolving parameter %q (field %q) for method %q", param.Ident, param.Field, method)
		}

		enc, err := Encode(&param, value)
		if err != nil {
			return nil, false, err
		}
		if enc.Omitted {
			continue
		}

		switch param.Location {
		case LocationPath:
			pathTemplate = substitutePath(pathTemplate, param.Ident, enc.Value)
		case LocationQuery:
			for _, pair := range enc.Pairs {
				req.Query.Add(pair.Key, pair.Value)
			}
		case LocationHeader:
			req.Header.Set(param.Ident, enc.Value)
		}
	}

	if path.BodyRequestObject && req.Method != http.MethodGet {
		value, err := resolve(&Parameter{Ident: "body", Field: RequestPartWhole, Format: FormatBinary})
		if err != nil {
			return nil, false, errors.Wrapf(err, "resolving request body for method %q", method)
		}
		body, err := value.Bytes()
		if err != nil {
			return nil, false, err
		}
		req.Body = body
	}

	req.URL = joinURL(c.config.BaseURL, pathTemplate)

	cfg := c.settings.Lookup(req.URL)

	alternatives := path.Security
	if alternatives == nil {
		alternatives = c.config.DefaultSecurity
	}
	combination := satisfiedAlternative(alternatives, cfg)
	satisfied := len(alternatives) == 0 || combination != nil
	if !satisfied {
		c.logger.Warn("declared security requirement is not satisfied by endpoint settings",
			log.MethodKey, method, log.URLKey, req.URL)
	}

	for _, scheme := range combination {
		if err := c.applyScheme(ctx, scheme, cfg, req); err != nil {
			return nil, satisfied, err
		}
	}

	if err := c.applySettings(ctx, cfg, req); err != nil {
		return nil, satisfied, err
	}

	// Endpoint settings may supply their own content type for the body.
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", BinaryContentType)
	}

	log.Trace(c.logger, "assembled request",
		slog.String(log.MethodKey, method),
		slog.String(log.URLKey, req.FullURL()),
		slog.Int("body_bytes", len(req.Body)))

	return req, satisfied, nil
}

// Call assembles the request for a named method and executes it through
// the configured transport. An unsatisfied security requirement does
// not abort the call; it has already been logged by Assemble. Non-2xx
// responses are returned together with a StatusError.
func (c *Client) Call(ctx context.Context, method string, resolve ValueFunc) (*Response, error) {
	if c.transport == nil {
		return nil, errors.New("no transport configured")
	}

	req, _, err := c.Assemble(ctx, method, resolve)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "calling method %q", method)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, &errors.StatusError{Method: method, URL: req.FullURL(), StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// applyScheme places the credential a satisfied scheme describes.
// Cookie credentials need no placement here; the settings cookies are
// folded into the Cookie header by applySettings.
func (c *Client) applyScheme(ctx context.Context, scheme *SecurityScheme, cfg *httpsettings.Config, req *Request) error {
	switch scheme.Kind {
	case SchemeAPIKey:
		if cfg.APIKey == nil {
			return nil
		}
		if scheme.Location == LocationQuery {
			req.Query.Set(scheme.KeyName, *cfg.APIKey)
		} else {
			req.Header.Set(scheme.KeyName, *cfg.APIKey)
		}
	case SchemeBearer:
		if cfg.Auth == nil {
			return nil
		}
		token, err := c.resolvePassword(ctx, cfg.Auth.Password, cfg.Auth.Keychain, cfg.Auth.User)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// applySettings folds the merged endpoint configuration onto the
// request: cookies into a single Cookie header, static headers, query
// defaults for keys the call did not set, basic-auth with lazy keychain
// resolution, and proxy settings.
func (c *Client) applySettings(ctx context.Context, cfg *httpsettings.Config, req *Request) error {
	if len(cfg.Cookies) > 0 {
		names := make([]string, 0, len(cfg.Cookies))
		for name := range cfg.Cookies {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, name+"="+cfg.Cookies[name])
		}
		req.Header.Set("Cookie", strings.Join(parts, "; "))
	}

	for _, kv := range cfg.Headers {
		req.Header.Add(kv.Key, kv.Value)
	}

	for _, kv := range cfg.Query {
		if _, ok := req.Query[kv.Key]; !ok {
			req.Query.Add(kv.Key, kv.Value)
		}
	}

	if cfg.Auth != nil && req.Header.Get("Authorization") == "" {
		password, err := c.resolvePassword(ctx, cfg.Auth.Password, cfg.Auth.Keychain, cfg.Auth.User)
		if err != nil {
			return err
		}
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Auth.User + ":" + password))
		req.Header.Set("Authorization", "Basic "+credentials)
	}

	if cfg.Proxy != nil {
		proxy := *cfg.Proxy
		if proxy.User != "" && proxy.Keychain != "" {
			password, err := c.resolvePassword(ctx, proxy.Password, proxy.Keychain, proxy.User)
			if err != nil {
				return err
			}
			proxy.Password = password
			proxy.Keychain = ""
		}
		req.Proxy = &proxy
	}

	return nil
}

// resolvePassword returns the literal password, resolving a keychain
// reference when one is configured. An unresolved secret (keychain
// timeout) comes back empty; that is the provider's soft-failure
// contract.
func (c *Client) resolvePassword(ctx context.Context, password, keychain, user string) (string, error) {
	if keychain == "" {
		return password, nil
	}
	secret, err := c.secrets.Load(ctx, keychain, user)
	if err != nil {
		return "", err
	}
	return secret, nil
}

// sortedParameterIdents fixes the parameter iteration order so repeated
// assemblies of the same call are byte-identical.
func sortedParameterIdents(parameters map[string]Parameter) []string {
	idents := make([]string, 0, len(parameters))
	for ident := range parameters {
		idents = append(idents, ident)
	}
	sort.Strings(idents)
	return idents
}

// joinURL appends a path suffix to the base URL without doubling the
// separator.
func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	switch {
	case strings.HasSuffix(base, "/") && strings.HasPrefix(path, "/"):
		return base + path[1:]
	case !strings.HasSuffix(base, "/") && !strings.HasPrefix(path, "/"):
		return base + "/" + path
	default:
		return base + path
	}
}
