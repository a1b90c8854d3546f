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

package settings

import (
	"strings"
	"testing"

	"github.com/tombee/apiwire/pkg/httpsettings"
)

func TestNewCommand(t *testing.T) {
	cmd := NewCommand()
	if cmd.Use != "settings" {
		t.Errorf("Use = %q, want settings", cmd.Use)
	}

	subs := map[string]bool{}
	for _, sub := range cmd.Commands() {
		subs[sub.Name()] = true
	}
	for _, name := range []string{"show", "lint"} {
		if !subs[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestMaskedHidesCredentials(t *testing.T) {
	key := "api-key-123456"
	cfg := &httpsettings.Config{
		Auth:   &httpsettings.BasicAuth{User: "alice", Password: "hunter2"},
		APIKey: &key,
	}

	out := masked(cfg)
	if out.Auth["user"] != "alice" {
		t.Errorf("user = %q, want alice", out.Auth["user"])
	}
	if strings.Contains(out.Auth["password"], "hunter2") {
		t.Error("masked output leaks the password")
	}
	if strings.Contains(out.APIKey, "api-key-123") {
		t.Errorf("masked API key %q leaks more than the suffix", out.APIKey)
	}
}

func TestMaskedKeepsKeychainReference(t *testing.T) {
	cfg := &httpsettings.Config{
		Auth: &httpsettings.BasicAuth{User: "alice", Keychain: "tile-service"},
	}

	out := masked(cfg)
	if out.Auth["keychain"] != "tile-service" {
		t.Errorf("keychain = %q, want tile-service", out.Auth["keychain"])
	}
	if _, ok := out.Auth["password"]; ok {
		t.Error("keychain-based auth must not render a password field")
	}
}
