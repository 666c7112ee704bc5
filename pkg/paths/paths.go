package paths

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the user's config directory for pingoo.
//
// If the home directory cannot be determined, it falls back to a directory
// under the system temporary directory.
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".pingoo-config"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".config", "pingoo"))
}

// GetDataDir returns the user's data directory for pingoo. The local
// credential and session stores and the debug log live here.
func GetDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".pingoo"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".pingoo"))
}

// StorePath returns the default location of the local store for the given
// backend. Backends without a file return an empty string.
func StorePath(backend string) string {
	switch backend {
	case "file":
		return filepath.Join(GetDataDir(), "storage.json")
	case "sqlite":
		return filepath.Join(GetDataDir(), "storage.db")
	case "keyring":
		return filepath.Join(GetDataDir(), "keyring")
	default:
		return ""
	}
}
