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
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/apiwire/internal/log"
	"github.com/tombee/apiwire/pkg/httpsettings"
)

// NewCommand creates the settings command for inspecting the HTTP
// settings file.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect the HTTP settings file",
		Long: `Inspect the settings file referenced by HTTP_SETTINGS_FILE.

The file maps URL patterns to cookies, headers, query parameters,
basic-auth credentials, proxy descriptors, and API keys. Requests made
through the client merge every entry whose pattern matches the full
request URL.`,
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newLintCommand())

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <url>",
		Short: "Show the merged settings for a URL",
		Long: `Show the settings that would apply to a request for the given URL.

All matching patterns are merged in lexicographic pattern order.
Passwords and API keys are masked.`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}
}

func newLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Validate the settings file",
		Long: `Parse the settings file and report malformed entries.

Checks that the file parses as YAML, that every pattern compiles as a
regular expression, and that basic-auth and proxy entries carry exactly
one credential source.`,
		Args: cobra.NoArgs,
		RunE: runLint,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	url := args[0]

	logger := log.New(log.FromEnv())
	store := httpsettings.NewStore(logger)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	merged := store.Lookup(url)
	if merged == nil || merged.IsZero() {
		fmt.Printf("No settings match %s\n", url)
		return nil
	}

	out, err := yaml.Marshal(masked(merged))
	if err != nil {
		return fmt.Errorf("failed to render settings: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runLint(cmd *cobra.Command, args []string) error {
	path := os.Getenv(httpsettings.EnvSettingsFile)
	if path == "" {
		return fmt.Errorf("%s is not set", httpsettings.EnvSettingsFile)
	}

	logger := log.New(log.FromEnv())
	store := httpsettings.NewStore(logger)
	if err := store.Load(); err != nil {
		return fmt.Errorf("settings file invalid: %w", err)
	}

	patterns := store.Patterns()
	bad := 0
	for _, pattern := range patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			fmt.Printf("invalid pattern %q: %v\n", pattern, err)
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d invalid pattern(s) in %s", bad, path)
	}

	fmt.Printf("%s: %d entries, all valid\n", path, len(patterns))
	return nil
}

// maskedConfig mirrors the settings entry shape for display, with
// credentials sanitized.
type maskedConfig struct {
	Cookies map[string]string `yaml:"cookies,omitempty"`
	Headers []maskedKV        `yaml:"headers,omitempty"`
	Query   []maskedKV        `yaml:"query,omitempty"`
	Auth    map[string]string `yaml:"basic-auth,omitempty"`
	Proxy   map[string]string `yaml:"proxy,omitempty"`
	APIKey  string            `yaml:"api-key,omitempty"`
}

type maskedKV struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

func masked(cfg *httpsettings.Config) maskedConfig {
	out := maskedConfig{}
	if len(cfg.Cookies) > 0 {
		out.Cookies = make(map[string]string, len(cfg.Cookies))
		for k, v := range cfg.Cookies {
			out.Cookies[k] = v
		}
	}
	out.Headers = maskedKVs(cfg.Headers)
	out.Query = maskedKVs(cfg.Query)
	if cfg.Auth != nil {
		out.Auth = map[string]string{"user": cfg.Auth.User}
		if cfg.Auth.Keychain != "" {
			out.Auth["keychain"] = cfg.Auth.Keychain
		} else {
			out.Auth["password"] = log.SanitizeSecret(cfg.Auth.Password)
		}
	}
	if cfg.Proxy != nil {
		out.Proxy = map[string]string{
			"host": cfg.Proxy.Host,
			"port": fmt.Sprintf("%d", cfg.Proxy.Port),
		}
		if cfg.Proxy.User != "" {
			out.Proxy["user"] = cfg.Proxy.User
		}
		if cfg.Proxy.Keychain != "" {
			out.Proxy["keychain"] = cfg.Proxy.Keychain
		}
	}
	if cfg.APIKey != nil {
		out.APIKey = log.SanitizeAPIKey(*cfg.APIKey)
	}
	return out
}

func maskedKVs(pairs []httpsettings.KV) []maskedKV {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]maskedKV, 0, len(pairs))
	for _, kv := range pairs {
		out = append(out, maskedKV{Key: kv.Key, Value: kv.Value})
	}
	return out
}
