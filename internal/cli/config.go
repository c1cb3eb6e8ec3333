package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/gregorycrane/tb2ud/pkg/rewrite"
)

// configName is the config file looked up when --config is not given.
const configName = "tb2ud.toml"

// Config is the TOML configuration file shape. Every section is optional;
// flags override file values.
type Config struct {
	// Tables overrides the rewrite lookup sets. Empty fields keep the
	// treebank defaults.
	Tables rewrite.Tables `toml:"tables"`

	// Serve configures the HTTP service.
	Serve ServeConfig `toml:"serve"`

	// Store configures the corpus document store.
	Store StoreConfig `toml:"store"`
}

// ServeConfig holds the [serve] section.
type ServeConfig struct {
	// Addr is the listen address (":8080" when empty).
	Addr string `toml:"addr"`
	// Redis is the host:port of a Redis server for the shared conversion
	// cache. Empty selects the local file cache.
	Redis string `toml:"redis"`
}

// StoreConfig holds the [store] section.
type StoreConfig struct {
	// Backend selects the store type: "filesystem", "sqlite", or "mongo".
	Backend string `toml:"backend"`
	// Path is the root directory (filesystem) or database file (sqlite).
	Path string `toml:"path"`
	// URI is the mongodb:// connection string.
	URI string `toml:"uri"`
	// Database is the MongoDB database name.
	Database string `toml:"database"`
}

// loadConfig reads the config file at path. An empty path searches the
// default locations and returns a zero Config when none exists; an explicit
// path must exist.
func loadConfig(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = findConfig()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Tables.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// findConfig returns the first existing default config path, or "".
// The working directory wins over the XDG config directory.
func findConfig() string {
	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// configPaths lists the default config locations in lookup order.
func configPaths() []string {
	paths := []string{configName}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		paths = append(paths, filepath.Join(configHome, appName, configName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, configName))
	}
	return paths
}
