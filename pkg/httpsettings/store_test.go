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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/apiwire/pkg/errors"
)

func writeSettings(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "http-settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv(EnvSettingsFile, path)
}

func TestLoadMissingEnvVar(t *testing.T) {
	t.Setenv(EnvSettingsFile, "")

	store := NewStore(nil)
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvSettingsFile, filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	store := NewStore(nil)
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestLoadEntries(t *testing.T) {
	writeSettings(t, `
- url: https://api\.example\.com/.*
  cookies:
    session: abc
  headers:
    X-Trace: "1"
  query:
    lang: en
  basic-auth:
    user: alice
    password: secret
  api-key: key-123
- url: https://other\.example\.com/.*
  proxy:
    host: proxy.example.com
    port: 8080
`)

	store := NewStore(nil)
	require.NoError(t, store.Load())
	require.Equal(t, 2, store.Len())

	cfg := store.Lookup("https://api.example.com/v1/items")
	assert.Equal(t, "abc", cfg.Cookies["session"])
	assert.Equal(t, []KV{{Key: "X-Trace", Value: "1"}}, cfg.Headers)
	assert.Equal(t, []KV{{Key: "lang", Value: "en"}}, cfg.Query)
	require.NotNil(t, cfg.Auth)
	assert.Equal(t, "alice", cfg.Auth.User)
	require.NotNil(t, cfg.APIKey)
	assert.Equal(t, "key-123", *cfg.APIKey)
	assert.Nil(t, cfg.Proxy)
}

func TestLoadMissingURLFailsClosed(t *testing.T) {
	writeSettings(t, `
- url: https://api\.example\.com/.*
  api-key: ok
- headers:
    X-Bad: "entry without url"
`)

	store := NewStore(nil)
	err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Equal(t, 0, store.Len(), "failed load must leave the store empty")
}

func TestLoadMalformedSubFieldFailsClosed(t *testing.T) {
	writeSettings(t, `
- url: https://api\.example\.com/.*
  basic-auth:
    user: alice
`)

	store := NewStore(nil)
	err := store.Load()
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestLoadInvalidPatternFailsClosed(t *testing.T) {
	writeSettings(t, `
- url: "https://api[.example"
  api-key: k
`)

	store := NewStore(nil)
	err := store.Load()
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestLoadClearsPreviousEntries(t *testing.T) {
	writeSettings(t, `
- url: https://api\.example\.com/.*
  api-key: ok
`)
	store := NewStore(nil)
	require.NoError(t, store.Load())
	require.Equal(t, 1, store.Len())

	writeSettings(t, "- headers:\n    X-Bad: no url\n")
	require.Error(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestSaveWithoutEnvVarIsNoOp(t *testing.T) {
	t.Setenv(EnvSettingsFile, "")

	store := NewStore(nil)
	store.Set("https://.*", &Config{APIKey: strptr("k")})
	require.NoError(t, store.Save())
}

func TestLookupFullMatchOnly(t *testing.T) {
	store := NewStore(nil)
	store.Set(`https://api\.example\.com`, &Config{APIKey: strptr("exact")})

	// Pattern must match the whole URL, not a prefix or substring.
	cfg := store.Lookup("https://api.example.com/v1/items")
	assert.Nil(t, cfg.APIKey)

	cfg = store.Lookup("https://api.example.com")
	require.NotNil(t, cfg.APIKey)
	assert.Equal(t, "exact", *cfg.APIKey)
}

func TestLookupNoMatchYieldsZeroConfig(t *testing.T) {
	store := NewStore(nil)
	store.Set(`https://api\.example\.com/.*`, &Config{APIKey: strptr("k")})

	cfg := store.Lookup("https://unrelated.example.org/")
	assert.True(t, cfg.IsZero())
}

func TestLookupUnionOfDisjointConfigs(t *testing.T) {
	store := NewStore(nil)
	store.Set(`https://.*`, &Config{Headers: []KV{{Key: "X-A", Value: "a"}}})
	store.Set(`.*example\.com.*`, &Config{Query: []KV{{Key: "token", Value: "t"}}})

	cfg := store.Lookup("https://api.example.com/v1")
	assert.Equal(t, []KV{{Key: "X-A", Value: "a"}}, cfg.Headers)
	assert.Equal(t, []KV{{Key: "token", Value: "t"}}, cfg.Query)
}

func TestLookupMergeAsymmetry(t *testing.T) {
	// Both patterns match; "a..." sorts before "h...". For overlapping
	// header keys the lexicographically earliest pattern wins, for
	// singleton fields the latest pattern wins.
	store := NewStore(nil)
	store.Set(`.*example\.com.*`, &Config{
		Headers: []KV{{Key: "X-Shared", Value: "early"}},
		APIKey:  strptr("early-key"),
	})
	store.Set(`https://.*`, &Config{
		Headers: []KV{{Key: "X-Shared", Value: "late"}},
		APIKey:  strptr("late-key"),
	})

	cfg := store.Lookup("https://api.example.com/v1")
	require.Len(t, cfg.Headers, 1)
	assert.Equal(t, "early", cfg.Headers[0].Value, "earliest pattern wins for map keys")
	require.NotNil(t, cfg.APIKey)
	assert.Equal(t, "late-key", *cfg.APIKey, "latest pattern wins for singletons")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "http-settings.yaml")
	t.Setenv(EnvSettingsFile, path)

	store := NewStore(nil)
	store.Set(`https://api\.example\.com/.*`, &Config{
		Cookies: map[string]string{"session": "abc"},
		Headers: []KV{{Key: "X-Trace", Value: "1"}},
		Query:   []KV{{Key: "lang", Value: "en"}},
		Auth:    &BasicAuth{User: "alice", Keychain: "my-service"},
		Proxy:   &Proxy{Host: "proxy.example.com", Port: 8080},
		APIKey:  strptr("key-123"),
	})
	store.Set(`https://other\.example\.com/.*`, &Config{
		Headers: []KV{{Key: "X-Other", Value: "2"}},
	})
	require.NoError(t, store.Save())

	reloaded := NewStore(nil)
	require.NoError(t, reloaded.Load())
	require.Equal(t, store.Len(), reloaded.Len())

	for _, url := range []string{
		"https://api.example.com/v1/items",
		"https://other.example.com/x",
		"https://unmatched.example.org/",
	} {
		assert.Equal(t, store.Lookup(url), reloaded.Lookup(url), "lookup mismatch for %s", url)
	}
}

func TestRemove(t *testing.T) {
	store := NewStore(nil)
	store.Set("a", &Config{})
	assert.True(t, store.Remove("a"))
	assert.False(t, store.Remove("a"))
}

func TestPatternsSorted(t *testing.T) {
	store := NewStore(nil)
	store.Set("zeta", &Config{})
	store.Set("alpha", &Config{})
	store.Set("mid", &Config{})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, store.Patterns())
}
