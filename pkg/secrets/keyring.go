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

package secrets

import (
	stderrors "errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/tombee/apiwire/pkg/errors"
)

// keyringPackage namespaces every entry this module writes, keeping
// them apart from other users of the OS keyring.
const keyringPackage = "com.github.tombee.apiwire"

// KeyringBackend stores secrets in the system keyring.
// Supported platforms:
//   - macOS: Keychain Access
//   - Linux: Secret Service API (GNOME Keyring, KWallet)
//   - Windows: Credential Manager
type KeyringBackend struct{}

// NewKeyringBackend creates a backend over the OS keyring.
func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{}
}

// Name returns the backend identifier.
func (k *KeyringBackend) Name() string {
	return "keyring"
}

// Get retrieves the password stored for (service, user).
func (k *KeyringBackend) Get(service, user string) (string, error) {
	value, err := keyring.Get(serviceKey(service), user)
	if err != nil {
		if stderrors.Is(err, keyring.ErrNotFound) {
			return "", &errors.NotFoundError{Resource: "secret", ID: service + "/" + user}
		}
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return value, nil
}

// Set stores a password for (service, user).
func (k *KeyringBackend) Set(service, user, password string) error {
	if err := keyring.Set(serviceKey(service), user, password); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// Delete removes the entry for (service, user).
func (k *KeyringBackend) Delete(service, user string) error {
	if err := keyring.Delete(serviceKey(service), user); err != nil {
		if stderrors.Is(err, keyring.ErrNotFound) {
			return &errors.NotFoundError{Resource: "secret", ID: service + "/" + user}
		}
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

func serviceKey(service string) string {
	return keyringPackage + "/" + service
}
