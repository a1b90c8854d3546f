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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/apiwire/internal/commands/secret"
	"github.com/tombee/apiwire/internal/commands/settings"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "apiwire",
		Short: "apiwire - OpenAPI request assembly utilities",
		Long: `apiwire assembles HTTP requests for OpenAPI-described services.

The library layers three concerns onto each request: parameter encoding
per the operation's style and format, credentials from the OS keychain,
and per-URL overrides from the file named by HTTP_SETTINGS_FILE.

This CLI manages the last two: keychain entries referenced from the
settings file, and the settings file itself.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	rootCmd.AddCommand(secret.NewCommand())
	rootCmd.AddCommand(settings.NewCommand())
	rootCmd.AddCommand(newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiwire %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}
