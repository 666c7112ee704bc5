// Package userconfig provides user-level configuration for pingoo.
// It is stored in ~/.config/pingoo/config.yaml.
package userconfig

import (
	"bytes"
	"cmp"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/pingoo/pingoo-client/pkg/paths"
)

// CurrentVersion is the current version of the user config format
const CurrentVersion = "v1"

const (
	DefaultBaseURL      = "http://localhost:5004"
	DefaultRefreshPath  = "/api/auth/refresh"
	DefaultLoginPath    = "/login"
	DefaultStoreBackend = "file"
	DefaultScreen       = "1920x1080"
)

// Store selects where credentials and the session record are kept.
type Store struct {
	// Backend is one of memory, file, sqlite or keyring.
	Backend string `yaml:"backend,omitempty"`
	// Path overrides the backend's default location.
	Path string `yaml:"path,omitempty"`
}

// Beacon holds the page environment reported by `pingoo beacon`.
type Beacon struct {
	// Screen is reported as the screen size, formatted WxH.
	Screen   string `yaml:"screen,omitempty"`
	Referrer string `yaml:"referrer,omitempty"`
}

// Config represents the user-level pingoo configuration
type Config struct {
	Version string `yaml:"version,omitempty"`
	// BaseURL is the pingoo server that relative request URLs target.
	BaseURL     string `yaml:"base_url,omitempty"`
	RefreshPath string `yaml:"refresh_path,omitempty"`
	LoginPath   string `yaml:"login_path,omitempty"`
	Store       Store  `yaml:"store,omitempty"`
	Beacon      Beacon `yaml:"beacon,omitempty"`
}

// Path returns the path to the config file
func Path() string {
	return filepath.Join(paths.GetConfigDir(), "config.yaml")
}

// Load reads the config file and applies PINGOO_* environment overrides.
// A missing file yields the defaults.
func Load() (*Config, error) {
	config, err := loadFrom(Path())
	if err != nil {
		return nil, err
	}
	config.applyEnv(os.Getenv)
	return config, nil
}

// LoadFile reads the config file without environment overrides, for
// editing and saving back.
func LoadFile() (*Config, error) {
	return loadFrom(Path())
}

func loadFrom(configPath string) (*Config, error) {
	config := &Config{}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			config.setDefaults()
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return config, nil
}

func (c *Config) setDefaults() {
	c.BaseURL = cmp.Or(c.BaseURL, DefaultBaseURL)
	c.RefreshPath = cmp.Or(c.RefreshPath, DefaultRefreshPath)
	c.LoginPath = cmp.Or(c.LoginPath, DefaultLoginPath)
	c.Store.Backend = cmp.Or(c.Store.Backend, DefaultStoreBackend)
	c.Beacon.Screen = cmp.Or(c.Beacon.Screen, DefaultScreen)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("PINGOO_BASE_URL")); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("PINGOO_STORE")); v != "" {
		c.Store.Backend = v
	}
	if v := strings.TrimSpace(getenv("PINGOO_STORE_PATH")); v != "" {
		c.Store.Path = v
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := c.ParsedBaseURL(); err != nil {
		return err
	}
	if _, _, err := c.ScreenSize(); err != nil {
		return err
	}
	return nil
}

// ParsedBaseURL returns BaseURL as an absolute URL.
func (c *Config) ParsedBaseURL() (*url.URL, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base_url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL)
	}
	return u, nil
}

// ScreenSize parses Beacon.Screen.
func (c *Config) ScreenSize() (width, height int, err error) {
	w, h, ok := strings.Cut(cmp.Or(c.Beacon.Screen, DefaultScreen), "x")
	if !ok {
		return 0, 0, fmt.Errorf("beacon.screen %q must be formatted WxH", c.Beacon.Screen)
	}
	if width, err = strconv.Atoi(w); err != nil {
		return 0, 0, fmt.Errorf("beacon.screen width: %w", err)
	}
	if height, err = strconv.Atoi(h); err != nil {
		return 0, 0, fmt.Errorf("beacon.screen height: %w", err)
	}
	return width, height, nil
}

// Keys lists the settable keys, in file order.
var Keys = []string{
	"base_url",
	"refresh_path",
	"login_path",
	"store.backend",
	"store.path",
	"beacon.screen",
	"beacon.referrer",
}

// Get returns the value of a key from Keys.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "base_url":
		return c.BaseURL, nil
	case "refresh_path":
		return c.RefreshPath, nil
	case "login_path":
		return c.LoginPath, nil
	case "store.backend":
		return c.Store.Backend, nil
	case "store.path":
		return c.StorePath(), nil
	case "beacon.screen":
		return c.Beacon.Screen, nil
	case "beacon.referrer":
		return c.Beacon.Referrer, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set updates a key from Keys and validates the result. An empty value
// resets the key to its default.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "base_url":
		c.BaseURL = value
	case "refresh_path":
		c.RefreshPath = value
	case "login_path":
		c.LoginPath = value
	case "store.backend":
		if value != "" && !slices.Contains(storeBackends, value) {
			return fmt.Errorf("store.backend must be one of %s", strings.Join(storeBackends, ", "))
		}
		c.Store.Backend = value
	case "store.path":
		c.Store.Path = value
	case "beacon.screen":
		c.Beacon.Screen = value
	case "beacon.referrer":
		c.Beacon.Referrer = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	c.setDefaults()
	return c.Validate()
}

var storeBackends = []string{"memory", "file", "sqlite", "keyring"}

// StorePath returns the configured store location, or the backend default.
func (c *Config) StorePath() string {
	return cmp.Or(c.Store.Path, paths.StorePath(c.Store.Backend))
}

// Save saves the configuration to the config file
func (c *Config) Save() error {
	return c.saveTo(Path())
}

func (c *Config) saveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	c.Version = CurrentVersion

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}
