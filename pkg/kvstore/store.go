// Package kvstore provides the small client-local key-value store shared by
// the authenticated request client (credential pair) and the beacon
// (session record).
//
// Stores perform plain read-then-write. There is no compare-and-swap, so two
// writers racing on the same key leave whichever value landed last.
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has never been set or was
// deleted.
var ErrNotFound = errors.New("key not found")

// Store is a flat string key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by Open.
const (
	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
)

// Open returns the store for the named backend. path is ignored by the
// memory backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return NewFile(path), nil
	case BackendSQLite:
		return NewSQLite(path)
	case BackendKeyring:
		return NewKeyring(KeyringConfig{Dir: path})
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// GetOrEmpty returns the stored value, or "" when the key is missing.
func GetOrEmpty(ctx context.Context, s Store, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
