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

// Package httpsettings resolves per-endpoint HTTP overrides (cookies,
// headers, query defaults, credentials, proxy) from a YAML settings file
// keyed by URL regular-expression patterns.
//
// The store is read-mostly: Lookup is safe for concurrent use only while
// no Load or Save is in flight. Callers that mutate the store during
// active request traffic must serialize externally; the intended use is
// a single Load at startup.
package httpsettings

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tombee/apiwire/pkg/errors"
)

// EnvSettingsFile is the environment variable naming the settings file.
// An unset or empty variable means no per-endpoint overrides.
const EnvSettingsFile = "HTTP_SETTINGS_FILE"

// entry is the persisted form of one settings record. Headers and query
// are plain maps in the file; ordering inside an entry is not
// significant, only the pattern order across entries is.
type entry struct {
	URL     string            `yaml:"url"`
	Cookies map[string]string `yaml:"cookies,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Query   map[string]string `yaml:"query,omitempty"`
	Auth    *BasicAuth        `yaml:"basic-auth,omitempty"`
	Proxy   *Proxy            `yaml:"proxy,omitempty"`
	APIKey  *string           `yaml:"api-key,omitempty"`
}

// Store is an ordered collection of (URL pattern, Config) records.
// Merge precedence follows the lexicographic order of the pattern
// strings, not insertion order.
type Store struct {
	entries map[string]*Config
	logger  *slog.Logger
}

// NewStore creates an empty store. Pass a nil logger to use slog.Default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries: make(map[string]*Config),
		logger:  logger,
	}
}

// Load clears the store and re-reads all entries from the file named by
// HTTP_SETTINGS_FILE. An unset variable or a missing file is not an
// error; the store is simply left empty. Any structural or validation
// failure rejects the whole file: the store stays empty and a
// ConfigError is returned. There is no partially loaded state.
func (s *Store) Load() error {
	s.entries = make(map[string]*Config)

	path := os.Getenv(EnvSettingsFile)
	if path == "" {
		s.logger.Debug("HTTP settings file variable is empty", "env", EnvSettingsFile)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("HTTP settings file does not exist", "path", path)
			return nil
		}
		cerr := &errors.ConfigError{Reason: fmt.Sprintf("cannot read settings file %s", path), Cause: err}
		s.logger.Error("failed to read HTTP settings", "path", path, "error", err)
		return cerr
	}

	var raw []entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		cerr := &errors.ConfigError{Reason: fmt.Sprintf("cannot parse settings file %s", path), Cause: err}
		s.logger.Error("failed to parse HTTP settings", "path", path, "error", err)
		return cerr
	}

	loaded := make(map[string]*Config, len(raw))
	for i, e := range raw {
		if e.URL == "" {
			cerr := &errors.ConfigError{
				Key:    fmt.Sprintf("entries[%d].url", i),
				Reason: fmt.Sprintf("missing required field 'url' in %s", path),
			}
			s.logger.Error("failed to read HTTP settings entry", "path", path, "error", cerr)
			return cerr
		}
		if _, err := regexp.Compile(e.URL); err != nil {
			cerr := &errors.ConfigError{
				Key:    fmt.Sprintf("entries[%d].url", i),
				Reason: fmt.Sprintf("invalid URL pattern %q", e.URL),
				Cause:  err,
			}
			s.logger.Error("failed to read HTTP settings entry", "path", path, "error", cerr)
			return cerr
		}
		loaded[e.URL] = e.config()
	}

	s.entries = loaded
	s.logger.Debug("loaded HTTP settings", "path", path, "entries", len(loaded))
	return nil
}

// Save serializes all entries back to the file named by
// HTTP_SETTINGS_FILE, sorted by pattern. An unset variable is a no-op
// with a warning, not a failure.
func (s *Store) Save() error {
	path := os.Getenv(EnvSettingsFile)
	if path == "" {
		s.logger.Warn("HTTP settings file variable is not set, cannot save settings", "env", EnvSettingsFile)
		return nil
	}

	raw := make([]entry, 0, len(s.entries))
	for _, pattern := range s.Patterns() {
		raw = append(raw, newEntry(pattern, s.entries[pattern]))
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return errors.Wrapf(err, "serializing HTTP settings to %s", path)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrapf(err, "writing HTTP settings to %s", path)
	}

	s.logger.Debug("saved HTTP settings", "path", path, "entries", len(raw))
	return nil
}

// Lookup merges every entry whose pattern fully matches url, in
// lexicographic pattern order, and returns the accumulated Config.
// A URL with no matching pattern yields a zero Config.
func (s *Store) Lookup(url string) *Config {
	merged := &Config{}

	for _, pattern := range s.Patterns() {
		re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
		if err != nil {
			// Patterns from Load are pre-validated; this can only happen
			// for patterns injected through Set.
			s.logger.Warn("skipping invalid URL pattern", slog.String("pattern", pattern), "error", err)
			continue
		}
		if !re.MatchString(url) {
			continue
		}
		merged.Merge(s.entries[pattern])
	}

	return merged
}

// Set inserts or replaces the Config for a pattern.
func (s *Store) Set(pattern string, cfg *Config) {
	s.entries[pattern] = cfg
}

// Remove deletes the entry for a pattern, reporting whether it existed.
func (s *Store) Remove(pattern string) bool {
	_, ok := s.entries[pattern]
	delete(s.entries, pattern)
	return ok
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Patterns returns all pattern keys in lexicographic order, which is
// the order Lookup applies them in.
func (s *Store) Patterns() []string {
	patterns := make([]string, 0, len(s.entries))
	for pattern := range s.entries {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	return patterns
}

// config converts a persisted entry into its in-memory form. Map keys
// are sorted so repeated Load calls produce identical header and query
// ordering.
func (e *entry) config() *Config {
	cfg := &Config{
		Auth:   e.Auth,
		Proxy:  e.Proxy,
		APIKey: e.APIKey,
	}
	if len(e.Cookies) > 0 {
		cfg.Cookies = make(map[string]string, len(e.Cookies))
		for name, value := range e.Cookies {
			cfg.Cookies[name] = value
		}
	}
	cfg.Headers = sortedKVs(e.Headers)
	cfg.Query = sortedKVs(e.Query)
	return cfg
}

func newEntry(pattern string, cfg *Config) entry {
	e := entry{
		URL:    pattern,
		Auth:   cfg.Auth,
		Proxy:  cfg.Proxy,
		APIKey: cfg.APIKey,
	}
	if len(cfg.Cookies) > 0 {
		e.Cookies = cfg.Cookies
	}
	if len(cfg.Headers) > 0 {
		e.Headers = make(map[string]string, len(cfg.Headers))
		for _, kv := range cfg.Headers {
			e.Headers[kv.Key] = kv.Value
		}
	}
	if len(cfg.Query) > 0 {
		e.Query = make(map[string]string, len(cfg.Query))
		for _, kv := range cfg.Query {
			e.Query[kv.Key] = kv.Value
		}
	}
	return e
}

func sortedKVs(m map[string]string) []KV {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	kvs := make([]KV, 0, len(keys))
	for _, key := range keys {
		kvs = append(kvs, KV{Key: key, Value: m[key]})
	}
	return kvs
}
