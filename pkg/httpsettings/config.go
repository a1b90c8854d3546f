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

package httpsettings

import (
	"gopkg.in/yaml.v3"

	"github.com/tombee/apiwire/pkg/errors"
)

// KV is a single key/value occurrence in a multi-valued field.
// Headers and query defaults allow repeated keys, so they are kept as
// ordered slices rather than maps.
type KV struct {
	Key   string
	Value string
}

// BasicAuth holds basic-authentication credentials for an endpoint.
// Exactly one of Password or Keychain must be set: Password is a literal
// secret, Keychain names a keychain service resolved at request time.
type BasicAuth struct {
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	Keychain string `yaml:"keychain,omitempty"`
}

// UnmarshalYAML validates the load-time invariant: a user is required,
// and exactly one credential source must be present.
func (a *BasicAuth) UnmarshalYAML(node *yaml.Node) error {
	type plain BasicAuth
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.User == "" {
		return &errors.ConfigError{Key: "basic-auth", Reason: "missing required field 'user'"}
	}
	if raw.Password == "" && raw.Keychain == "" {
		return &errors.ConfigError{Key: "basic-auth", Reason: "one of 'password' or 'keychain' is required"}
	}
	if raw.Password != "" && raw.Keychain != "" {
		return &errors.ConfigError{Key: "basic-auth", Reason: "'password' and 'keychain' are mutually exclusive"}
	}
	*a = BasicAuth(raw)
	return nil
}

// Proxy holds HTTP proxy settings for an endpoint. User is optional;
// when present it carries the same one-of password/keychain invariant
// as BasicAuth.
type Proxy struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Keychain string `yaml:"keychain,omitempty"`
}

// UnmarshalYAML validates required host/port and the credential invariant.
func (p *Proxy) UnmarshalYAML(node *yaml.Node) error {
	type plain Proxy
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Host == "" {
		return &errors.ConfigError{Key: "proxy", Reason: "missing required field 'host'"}
	}
	if raw.Port == 0 {
		return &errors.ConfigError{Key: "proxy", Reason: "missing required field 'port'"}
	}
	if raw.User != "" {
		if raw.Password == "" && raw.Keychain == "" {
			return &errors.ConfigError{Key: "proxy", Reason: "one of 'password' or 'keychain' is required when 'user' is set"}
		}
		if raw.Password != "" && raw.Keychain != "" {
			return &errors.ConfigError{Key: "proxy", Reason: "'password' and 'keychain' are mutually exclusive"}
		}
	}
	*p = Proxy(raw)
	return nil
}

// Config is a mergeable bag of per-endpoint overrides. A merged Config
// is ephemeral: it is produced per lookup and never persisted.
type Config struct {
	// Cookies are folded into a single Cookie header at request time.
	Cookies map[string]string

	// Headers are static header values, repeated keys allowed.
	Headers []KV

	// Query holds default query parameters, repeated keys allowed.
	Query []KV

	// Auth is the basic-auth credential, nil when unset.
	Auth *BasicAuth

	// Proxy is the proxy configuration, nil when unset.
	Proxy *Proxy

	// APIKey is the API key credential, nil when unset.
	APIKey *string
}

// Merge folds other into c. Multi-valued fields use insert-if-absent
// semantics: keys already present in c win. Singleton fields (Auth,
// Proxy, APIKey) are overwritten whenever other carries a value. When
// configs are merged in pattern order this makes the earliest pattern
// win for overlapping map keys and the latest pattern win for singleton
// overrides. That asymmetry is part of the settings contract.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	for name, value := range other.Cookies {
		if c.Cookies == nil {
			c.Cookies = make(map[string]string)
		}
		if _, ok := c.Cookies[name]; !ok {
			c.Cookies[name] = value
		}
	}

	for _, kv := range other.Headers {
		if !hasKey(c.Headers, kv.Key) {
			c.Headers = append(c.Headers, kv)
		}
	}

	for _, kv := range other.Query {
		if !hasKey(c.Query, kv.Key) {
			c.Query = append(c.Query, kv)
		}
	}

	if other.Auth != nil {
		auth := *other.Auth
		c.Auth = &auth
	}
	if other.Proxy != nil {
		proxy := *other.Proxy
		c.Proxy = &proxy
	}
	if other.APIKey != nil {
		key := *other.APIKey
		c.APIKey = &key
	}
}

// IsZero reports whether the config carries no overrides at all.
func (c *Config) IsZero() bool {
	return len(c.Cookies) == 0 && len(c.Headers) == 0 && len(c.Query) == 0 &&
		c.Auth == nil && c.Proxy == nil && c.APIKey == nil
}

func hasKey(kvs []KV, key string) bool {
	for _, kv := range kvs {
		if kv.Key == key {
			return true
		}
	}
	return false
}
