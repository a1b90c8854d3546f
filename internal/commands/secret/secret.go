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

package secret

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/apiwire/internal/log"
	"github.com/tombee/apiwire/pkg/secrets"
)

var secretUnmask bool

// NewCommand creates the secret command for keychain credential management.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage keychain credentials referenced from HTTP settings",
		Long: `Manage the keychain entries that HTTP settings reference.

Settings entries can name a keychain service instead of embedding a
literal password:

  - url: https://api\.example\.com/.*
    basic-auth:
      user: alice
      keychain: tile-service

These commands store, inspect, and remove those entries in the OS
keychain (macOS Keychain, Linux Secret Service, Windows Credential
Manager).

Examples:
  apiwire secret set tile-service alice
  apiwire secret get tile-service alice
  apiwire secret delete tile-service alice`,
	}

	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newDeleteCommand())

	return cmd
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <service> <user>",
		Short: "Store a credential in the keychain",
		Long: `Store a credential for (service, user) in the OS keychain.

The secret value can be provided via:
  - Interactive prompt (hidden input, default)
  - Standard input: echo "value" | apiwire secret set <service> <user>

An empty service name generates a fresh service id; the effective id is
printed so it can be referenced from the settings file.`,
		Args: cobra.ExactArgs(2),
		RunE: runSet,
	}
}

func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <service> <user>",
		Short: "Retrieve a credential",
		Long: `Retrieve the credential stored for (service, user).

By default, the value is masked for security. Use --unmask to show the
full value.`,
		Args: cobra.ExactArgs(2),
		RunE: runGet,
	}
	cmd.Flags().BoolVar(&secretUnmask, "unmask", false, "Show full value (not masked)")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <service> <user>",
		Short: "Remove a credential",
		Args:  cobra.ExactArgs(2),
		RunE:  runDelete,
	}
}

func runSet(cmd *cobra.Command, args []string) error {
	service, user := args[0], args[1]

	value, err := readSecretValue()
	if err != nil {
		return fmt.Errorf("failed to read secret value: %w", err)
	}
	if value == "" {
		return fmt.Errorf("secret value cannot be empty")
	}

	provider := secrets.NewProvider()
	effective, err := provider.Store(cmd.Context(), service, user, value)
	if err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	if effective == "" {
		return fmt.Errorf("secret store timed out; nothing was written")
	}

	fmt.Printf("Secret stored for service %q, user %q\n", effective, user)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	service, user := args[0], args[1]

	provider := secrets.NewProvider()
	value, err := provider.Load(cmd.Context(), service, user)
	if err != nil {
		return fmt.Errorf("failed to get secret: %w", err)
	}
	if value == "" {
		return fmt.Errorf("secret unresolved for service %q, user %q", service, user)
	}

	if secretUnmask {
		fmt.Println(value)
	} else {
		fmt.Printf("%s (use --unmask to show full value)\n", log.SanitizeAPIKey(value))
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	service, user := args[0], args[1]

	provider := secrets.NewProvider()
	removed, err := provider.Remove(cmd.Context(), service, user)
	if err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	if !removed {
		fmt.Printf("No secret found for service %q, user %q\n", service, user)
		return nil
	}

	fmt.Printf("Secret deleted for service %q, user %q\n", service, user)
	return nil
}

// readSecretValue reads the secret from stdin when piped, or prompts
// with hidden input on a terminal.
func readSecretValue() (string, error) {
	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		reader := bufio.NewReader(os.Stdin)
		value, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		return strings.TrimRight(value, "\r\n"), nil
	}

	// Interactive prompt with hidden input
	fmt.Print("Enter secret value (hidden): ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after hidden input
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}
