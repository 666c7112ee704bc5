package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	config, err := loadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, config.BaseURL)
	assert.Equal(t, DefaultRefreshPath, config.RefreshPath)
	assert.Equal(t, DefaultLoginPath, config.LoginPath)
	assert.Equal(t, DefaultStoreBackend, config.Store.Backend)
	assert.Equal(t, DefaultScreen, config.Beacon.Screen)
}

func TestConfig_CommentOnlyFile(t *testing.T) {
	t.Parallel()

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("# empty config\n"), 0o644))

	config, err := loadFrom(configFile)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, config.BaseURL)
}

func TestConfig_LoadValues(t *testing.T) {
	t.Parallel()

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
base_url: https://pingoo.example.com
login_path: /signin
store:
  backend: sqlite
  path: /var/lib/pingoo/store.db
beacon:
  screen: 390x844
  referrer: https://news.example/
`), 0o644))

	config, err := loadFrom(configFile)
	require.NoError(t, err)

	assert.Equal(t, "https://pingoo.example.com", config.BaseURL)
	assert.Equal(t, DefaultRefreshPath, config.RefreshPath)
	assert.Equal(t, "/signin", config.LoginPath)
	assert.Equal(t, "sqlite", config.Store.Backend)
	assert.Equal(t, "/var/lib/pingoo/store.db", config.StorePath())
	assert.Equal(t, "https://news.example/", config.Beacon.Referrer)

	w, h, err := config.ScreenSize()
	require.NoError(t, err)
	assert.Equal(t, 390, w)
	assert.Equal(t, 844, h)
}

func TestConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "relative base url", content: "base_url: /api\n"},
		{name: "bad screen", content: "beacon:\n  screen: wide\n"},
		{name: "non numeric screen", content: "beacon:\n  screen: ax100\n"},
		{name: "not yaml", content: "base_url: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configFile := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.content), 0o644))

			_, err := loadFrom(configFile)
			require.Error(t, err)
		})
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Parallel()

	config := &Config{}
	config.setDefaults()

	env := map[string]string{
		"PINGOO_BASE_URL":   "https://override.example",
		"PINGOO_STORE":      "keyring",
		"PINGOO_STORE_PATH": "/tmp/ring",
	}
	config.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "https://override.example", config.BaseURL)
	assert.Equal(t, "keyring", config.Store.Backend)
	assert.Equal(t, "/tmp/ring", config.StorePath())
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	t.Parallel()

	configFile := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := &Config{BaseURL: "https://pingoo.example.com", Store: Store{Backend: "memory"}}
	require.NoError(t, config.saveTo(configFile))
	assert.Equal(t, CurrentVersion, config.Version)

	loaded, err := loadFrom(configFile)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, loaded.Version)
	assert.Equal(t, "https://pingoo.example.com", loaded.BaseURL)
	assert.Equal(t, "memory", loaded.Store.Backend)
	assert.Empty(t, loaded.StorePath())
}

func TestConfig_SetAndGet(t *testing.T) {
	t.Parallel()

	config := &Config{}
	config.setDefaults()

	require.NoError(t, config.Set("base_url", " https://pingoo.example.com "))
	require.NoError(t, config.Set("store.backend", "keyring"))
	require.NoError(t, config.Set("beacon.screen", "390x844"))

	for key, want := range map[string]string{
		"base_url":      "https://pingoo.example.com",
		"store.backend": "keyring",
		"beacon.screen": "390x844",
		"login_path":    DefaultLoginPath,
	} {
		got, err := config.Get(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}

	// An empty value restores the default.
	require.NoError(t, config.Set("beacon.screen", ""))
	assert.Equal(t, DefaultScreen, config.Beacon.Screen)

	for _, key := range Keys {
		_, err := config.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestConfig_SetErrors(t *testing.T) {
	t.Parallel()

	config := &Config{}
	config.setDefaults()

	require.Error(t, config.Set("nope", "x"))
	require.Error(t, config.Set("store.backend", "floppy"))
	require.Error(t, config.Set("base_url", "not a url"))

	_, err := config.Get("nope")
	require.Error(t, err)
}
