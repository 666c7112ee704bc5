package kvstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

// KeyringConfig configures the OS secret store backend.
type KeyringConfig struct {
	// ServiceName namespaces the items. Defaults to "pingoo".
	ServiceName string
	// Dir is used by the encrypted-file fallback backend.
	Dir string
	// Backends restricts the backends keyring may pick. Empty means any.
	Backends []keyring.BackendType
}

// Keyring is a Store that keeps values in the OS secret store (Keychain,
// Secret Service, Windows Credential Manager) or an encrypted file.
type Keyring struct {
	ring keyring.Keyring
}

func NewKeyring(cfg KeyringConfig) (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      cmp.Or(cfg.ServiceName, "pingoo"),
		AllowedBackends:  cfg.Backends,
		FileDir:          cfg.Dir,
		FilePasswordFunc: keyring.FixedStringPrompt(os.Getenv("PINGOO_KEYRING_PASSWORD")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &Keyring{ring: ring}, nil
}

// NewKeyringFrom wraps an already opened keyring.
func NewKeyringFrom(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

func (k *Keyring) Get(_ context.Context, key string) (string, error) {
	item, err := k.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %q from keyring: %w", key, err)
	}
	return string(item.Data), nil
}

func (k *Keyring) Set(_ context.Context, key, value string) error {
	if err := k.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: "pingoo " + key}); err != nil {
		return fmt.Errorf("failed to write key %q to keyring: %w", key, err)
	}
	return nil
}

func (k *Keyring) Delete(_ context.Context, key string) error {
	err := k.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %q from keyring: %w", key, err)
	}
	return nil
}
