package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvPricingURL, "")
	t.Setenv(EnvPricingOffline, "")
	t.Setenv(EnvAddr, "")
	return dir
}

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.General.PageSize)
	}
	if cfg.Pricing.URL != DefaultPricingURL {
		t.Errorf("Pricing.URL = %q", cfg.Pricing.URL)
	}
	if cfg.Pricing.Timeout != 15*time.Second {
		t.Errorf("Pricing.Timeout = %v, want 15s", cfg.Pricing.Timeout)
	}
	want := filepath.Join(dir, "cache", "sessionlens", "model_prices.json")
	if cfg.Pricing.CachePath != want {
		t.Errorf("CachePath = %q, want %q", cfg.Pricing.CachePath, want)
	}
	if Exists() {
		t.Error("Exists() = true with no config file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.General.DataDir = "/tmp/sessions"
	cfg.General.PageSize = 20
	cfg.Pricing.Offline = true
	cfg.Pricing.Timeout = 5 * time.Second
	cfg.Server.Addr = "127.0.0.1:9999"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.DataDir != "/tmp/sessions" || got.General.PageSize != 20 {
		t.Errorf("General = %+v", got.General)
	}
	if !got.Pricing.Offline || got.Pricing.Timeout != 5*time.Second {
		t.Errorf("Pricing = %+v", got.Pricing)
	}
	if got.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("Server.Addr = %q", got.Server.Addr)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.General.DataDir = "/from/file"
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvDataDir, "/from/env")
	t.Setenv(EnvPricingOffline, "true")
	t.Setenv(EnvAddr, "0.0.0.0:1")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.DataDir != "/from/env" {
		t.Errorf("DataDir = %q, want /from/env", got.General.DataDir)
	}
	if !got.Pricing.Offline {
		t.Error("Offline = false, want true")
	}
	if got.Server.Addr != "0.0.0.0:1" {
		t.Errorf("Addr = %q", got.Server.Addr)
	}
}

func TestLoad_DotEnvInConfigDir(t *testing.T) {
	isolate(t)
	// godotenv never overrides a variable that is already set, even to "".
	if err := os.Unsetenv(EnvPricingURL); err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	env := EnvPricingURL + "=http://localhost:1/prices.json\n"
	if err := os.WriteFile(filepath.Join(Dir(), ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv(EnvPricingURL) })

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Pricing.URL != "http://localhost:1/prices.json" {
		t.Errorf("Pricing.URL = %q", got.Pricing.URL)
	}
}

func TestLoad_BadOfflineValue(t *testing.T) {
	isolate(t)
	t.Setenv(EnvPricingOffline, "sometimes")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable offline flag")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/x/y", filepath.Join(home, "x", "y")},
		{"/abs/path", "/abs/path"},
		{"rel/~", "rel/~"},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
