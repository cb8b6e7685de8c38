package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Vendor.URL != "https://maclookup.app/downloads/json-database/get-db" {
		t.Errorf("Vendor.URL = %q", cfg.Vendor.URL)
	}
	if cfg.Vendor.FetchTimeout != 20*time.Second {
		t.Errorf("Vendor.FetchTimeout = %v, want 20s", cfg.Vendor.FetchTimeout)
	}
	if cfg.Vendor.StaleAfter != 7*24*time.Hour {
		t.Errorf("Vendor.StaleAfter = %v, want 168h", cfg.Vendor.StaleAfter)
	}
	if cfg.Cache.SandboxEnv != "SNAP_USER_COMMON" {
		t.Errorf("Cache.SandboxEnv = %q", cfg.Cache.SandboxEnv)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ARPSCAN_VENDOR_URL", "http://127.0.0.1:8080/db.json")
	t.Setenv("ARPSCAN_FETCH_TIMEOUT", "5s")
	t.Setenv("ARPSCAN_CACHE_DIR", "/var/cache/arpscan")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Vendor.URL != "http://127.0.0.1:8080/db.json" {
		t.Errorf("Vendor.URL = %q", cfg.Vendor.URL)
	}
	if cfg.Vendor.FetchTimeout != 5*time.Second {
		t.Errorf("Vendor.FetchTimeout = %v", cfg.Vendor.FetchTimeout)
	}

	path, err := cfg.VendorCachePath()
	if err != nil {
		t.Fatalf("VendorCachePath() error = %v", err)
	}
	if want := filepath.Join("/var/cache/arpscan", VendorCacheFile); path != want {
		t.Errorf("VendorCachePath() = %q, want %q", path, want)
	}
}

func TestSandboxOverride(t *testing.T) {
	t.Setenv("CONFINED_HOME", "/snap/arpscan/common")

	cfg := &Config{Cache: CacheConfig{SandboxEnv: "CONFINED_HOME"}}
	path, err := cfg.VendorCachePath()
	if err != nil {
		t.Fatalf("VendorCachePath() error = %v", err)
	}
	if want := filepath.Join("/snap/arpscan/common", VendorCacheFile); path != want {
		t.Errorf("VendorCachePath() = %q, want %q", path, want)
	}
}

func TestCacheDir(t *testing.T) {
	userDir := func() (string, error) { return "/home/user/.cache", nil }
	failing := func() (string, error) { return "", errors.New("no home") }

	tests := []struct {
		name     string
		explicit string
		sandbox  string
		userDir  func() (string, error)
		want     string
		wantErr  bool
	}{
		{name: "explicit wins", explicit: "/opt/cache", sandbox: "/snap/common", userDir: userDir, want: "/opt/cache"},
		{name: "sandbox before user dir", sandbox: "/snap/common", userDir: userDir, want: "/snap/common"},
		{name: "user dir fallback", userDir: userDir, want: filepath.Join("/home/user/.cache", AppName)},
		{name: "blank values are ignored", explicit: "  ", sandbox: " ", userDir: userDir, want: filepath.Join("/home/user/.cache", AppName)},
		{name: "user dir failure", userDir: failing, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CacheDir(tt.explicit, tt.sandbox, tt.userDir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CacheDir() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
