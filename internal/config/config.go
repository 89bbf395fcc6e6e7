// Package config loads sessionlens settings from TOML, .env files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultPricingURL is the LiteLLM model price list.
const DefaultPricingURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

// Environment variables that override the config file.
const (
	EnvDataDir        = "SESSIONLENS_DATA_DIR"
	EnvPricingURL     = "SESSIONLENS_PRICING_URL"
	EnvPricingOffline = "SESSIONLENS_PRICING_OFFLINE"
	EnvAddr           = "SESSIONLENS_ADDR"
)

// Config holds all sessionlens configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Pricing    PricingConfig    `toml:"pricing"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir     string `toml:"data_dir" json:"data_dir"`
	PageSize    int    `toml:"page_size" json:"page_size"`
	DefaultDays int    `toml:"default_days" json:"default_days"`
}

// PricingConfig controls where the pricing catalog comes from.
type PricingConfig struct {
	URL       string        `toml:"url"`
	CachePath string        `toml:"cache_path"`
	Timeout   time.Duration `toml:"timeout"`
	Offline   bool          `toml:"offline"`
}

// ServerConfig holds settings for `sessionlens serve`.
type ServerConfig struct {
	Addr              string        `toml:"addr"`
	Interval          time.Duration `toml:"interval"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme" json:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		General: GeneralConfig{
			DataDir:  filepath.Join(home, ".claude", "projects"),
			PageSize: 50,
		},
		Pricing: PricingConfig{
			URL:       DefaultPricingURL,
			CachePath: filepath.Join(CacheDir(), "model_prices.json"),
			Timeout:   15 * time.Second,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8788",
			Interval:          30 * time.Second,
			RequestsPerSecond: 20,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sessionlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sessionlens")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "sessionlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "sessionlens")
}

// Load reads the config file, then applies .env and environment overrides.
// A missing config file yields defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	loadDotEnv()
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	cfg.General.DataDir = ExpandHome(cfg.General.DataDir)
	cfg.Pricing.CachePath = ExpandHome(cfg.Pricing.CachePath)
	if cfg.General.PageSize <= 0 {
		cfg.General.PageSize = 50
	}
	if cfg.Pricing.Timeout <= 0 {
		cfg.Pricing.Timeout = 15 * time.Second
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// loadDotEnv loads the first .env file found. Variables already set in the
// environment are not overwritten.
func loadDotEnv() {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func envPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	return append(paths, filepath.Join(Dir(), ".env"))
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.General.DataDir = v
	}
	if v := os.Getenv(EnvPricingURL); v != "" {
		cfg.Pricing.URL = v
	}
	if v := os.Getenv(EnvPricingOffline); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvPricingOffline, err)
		}
		cfg.Pricing.Offline = b
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}
