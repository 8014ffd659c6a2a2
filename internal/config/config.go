// Package config loads ruggle's configuration from a TOML file plus
// environment overrides, and resolves the cache/socket/log paths the
// daemon and CLI share.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DaemonConfig controls the background daemon's inactivity lifecycle.
type DaemonConfig struct {
	ExpirationSeconds int `mapstructure:"expiration_seconds"`
}

// SearchConfig supplies defaults for search requests that omit limit or
// threshold, per spec §6.2.
type SearchConfig struct {
	DefaultLimit     int     `mapstructure:"default_limit"`
	DefaultThreshold float64 `mapstructure:"default_threshold"`
}

type Config struct {
	Daemon DaemonConfig `mapstructure:"daemon"`
	Search SearchConfig `mapstructure:"search"`
}

// cacheBase returns the base cache directory for ruggle.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/ruggle as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "ruggle")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "ruggle")
	}
	return filepath.Join(os.TempDir(), "ruggle")
}

// CatalogDBPath returns the path to the sqlite ingest-bookkeeping catalog.
func CatalogDBPath() string {
	return filepath.Join(cacheBase(), "catalog.db")
}

// JSONCacheDir returns the path to the cached documentation JSON blobs.
func JSONCacheDir() string {
	return filepath.Join(cacheBase(), "json")
}

// LogPath returns the path to the daemon's log file.
func LogPath() string {
	return filepath.Join(cacheBase(), "daemon.log")
}

// SocketPath returns the path to the daemon's unix socket.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "ruggle", "daemon.sock")
	}
	return filepath.Join(fmt.Sprintf("/run/user/%d", os.Getuid()), "ruggle", "daemon.sock")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "ruggle"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "ruggle"))
	}

	viper.SetDefault("daemon.expiration_seconds", 600)
	viper.SetDefault("search.default_limit", 30)
	viper.SetDefault("search.default_threshold", 0.4)

	viper.SetEnvPrefix("RUGGLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Daemon.ExpirationSeconds <= 0 {
		cfg.Daemon.ExpirationSeconds = 600
	}
	if cfg.Search.DefaultLimit <= 0 {
		cfg.Search.DefaultLimit = 30
	}
	if cfg.Search.DefaultThreshold <= 0 {
		cfg.Search.DefaultThreshold = 0.4
	}

	return &cfg, nil
}
