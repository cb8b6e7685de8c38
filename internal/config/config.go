package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	envutil "github.com/projectdiscovery/utils/env"
)

const (
	// AppName names the per-user cache directory
	AppName = "arpscan"
	// VendorCacheFile is the file name of the persisted vendor database
	VendorCacheFile = "macDatabase.json"
)

// Config holds the environment driven settings of arpscan.
type Config struct {
	Vendor VendorConfig
	Cache  CacheConfig
}

// VendorConfig holds vendor database download settings.
type VendorConfig struct {
	URL          string        `env:"ARPSCAN_VENDOR_URL" envDefault:"https://maclookup.app/downloads/json-database/get-db"`
	FetchTimeout time.Duration `env:"ARPSCAN_FETCH_TIMEOUT" envDefault:"20s"`
	StaleAfter   time.Duration `env:"ARPSCAN_STALE_AFTER" envDefault:"168h"`
}

// CacheConfig controls where the vendor database is cached.
type CacheConfig struct {
	Dir string `env:"ARPSCAN_CACHE_DIR"`
	// SandboxEnv names the variable a confined runtime uses to expose a
	// writable per-user directory.
	SandboxEnv string `env:"ARPSCAN_SANDBOX_ENV" envDefault:"SNAP_USER_COMMON"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Vendor); err != nil {
		return nil, fmt.Errorf("parsing vendor config: %w", err)
	}
	if err := env.Parse(&cfg.Cache); err != nil {
		return nil, fmt.Errorf("parsing cache config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Vendor.URL) == "" {
		return fmt.Errorf("ARPSCAN_VENDOR_URL must not be empty")
	}
	if c.Vendor.FetchTimeout <= 0 {
		return fmt.Errorf("ARPSCAN_FETCH_TIMEOUT must be positive")
	}
	if c.Vendor.StaleAfter <= 0 {
		return fmt.Errorf("ARPSCAN_STALE_AFTER must be positive")
	}
	return nil
}

// VendorCachePath returns the location of the vendor database cache file.
func (c *Config) VendorCachePath() (string, error) {
	var sandbox string
	if c.Cache.SandboxEnv != "" {
		sandbox = envutil.GetEnvOrDefault(c.Cache.SandboxEnv, "")
	}
	dir, err := CacheDir(c.Cache.Dir, sandbox, os.UserCacheDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, VendorCacheFile), nil
}

// CacheDir resolves the cache directory. An explicit directory wins, then the
// sandbox directory, then <user cache dir>/arpscan.
func CacheDir(explicit, sandbox string, userDir func() (string, error)) (string, error) {
	if dir := strings.TrimSpace(explicit); dir != "" {
		return dir, nil
	}
	if dir := strings.TrimSpace(sandbox); dir != "" {
		return dir, nil
	}
	base, err := userDir()
	if err != nil {
		return "", fmt.Errorf("resolving user cache directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}
