package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ErrMissingBackend is returned by Validate when the backend URL or key is unset.
var ErrMissingBackend = errors.New("backend url and anon key must be configured (SUPABASE_URL, SUPABASE_ANON_KEY)")

type Config struct {
	SupabaseURL        string
	AnonKey            string
	CacheDir           string
	DBPath             string
	LogPath            string
	LogLevel           string
	LogJSON            bool
	StartPath          string
	DefaultDestination string
	RequestTimeout     time.Duration
	RefreshMargin      time.Duration
	RefreshInterval    time.Duration
	MonitorInterval    time.Duration
	ToastDuration      time.Duration
	PageSize           int
	RecentLookups      int
}

// fileConfig is the on-disk TOML shape. Durations are strings such as "30s".
type fileConfig struct {
	SupabaseURL        string `toml:"supabase_url"`
	AnonKey            string `toml:"anon_key"`
	CacheDir           string `toml:"cache_dir"`
	DBPath             string `toml:"db_path"`
	LogPath            string `toml:"log_path"`
	LogLevel           string `toml:"log_level"`
	LogJSON            bool   `toml:"log_json"`
	StartPath          string `toml:"start_path"`
	DefaultDestination string `toml:"default_destination"`
	RequestTimeout     string `toml:"request_timeout"`
	RefreshMargin      string `toml:"refresh_margin"`
	RefreshInterval    string `toml:"refresh_interval"`
	MonitorInterval    string `toml:"monitor_interval"`
	ToastDuration      string `toml:"toast_duration"`
	PageSize           int    `toml:"page_size"`
	RecentLookups      int    `toml:"recent_lookups"`
}

func (f fileConfig) toConfig() (Config, error) {
	cfg := Config{
		SupabaseURL:        strings.TrimRight(f.SupabaseURL, "/"),
		AnonKey:            f.AnonKey,
		CacheDir:           f.CacheDir,
		DBPath:             f.DBPath,
		LogPath:            f.LogPath,
		LogLevel:           f.LogLevel,
		LogJSON:            f.LogJSON,
		StartPath:          f.StartPath,
		DefaultDestination: f.DefaultDestination,
		PageSize:           f.PageSize,
		RecentLookups:      f.RecentLookups,
	}
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"request_timeout", f.RequestTimeout, &cfg.RequestTimeout},
		{"refresh_margin", f.RefreshMargin, &cfg.RefreshMargin},
		{"refresh_interval", f.RefreshInterval, &cfg.RefreshInterval},
		{"monitor_interval", f.MonitorInterval, &cfg.MonitorInterval},
		{"toast_duration", f.ToastDuration, &cfg.ToastDuration},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return cfg, nil
}

func Default() Config {
	cacheDir := filepath.Join(userConfigDir(), "ativo")
	return Config{
		CacheDir:           cacheDir,
		DBPath:             filepath.Join(cacheDir, "ativo.db"),
		LogPath:            filepath.Join(cacheDir, "debug.log"),
		LogLevel:           "info",
		StartPath:          "/",
		DefaultDestination: "/admin/dashboard",
		RequestTimeout:     10 * time.Second,
		RefreshMargin:      60 * time.Second,
		RefreshInterval:    15 * time.Second,
		MonitorInterval:    30 * time.Second,
		ToastDuration:      4 * time.Second,
		PageSize:           10,
		RecentLookups:      5,
	}
}

// Load builds a Config from defaults, an optional TOML file, an optional
// .env file in the working directory and finally the process environment.
// An empty path skips the TOML step; a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			var file fileConfig
			if err := toml.Unmarshal(data, &file); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
			override, err := file.toConfig()
			if err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
			cfg = merge(cfg, override)
		}
	}

	// godotenv never overrides variables already present in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Validate reports configuration the client cannot run without.
func (c Config) Validate() error {
	if c.SupabaseURL == "" || c.AnonKey == "" {
		return ErrMissingBackend
	}
	if !strings.HasPrefix(c.StartPath, "/") {
		return fmt.Errorf("start path %q must begin with /", c.StartPath)
	}
	return nil
}

// merge returns base with every non-zero field of override applied.
func merge(base, override Config) Config {
	result := base
	if override.SupabaseURL != "" {
		result.SupabaseURL = override.SupabaseURL
	}
	if override.AnonKey != "" {
		result.AnonKey = override.AnonKey
	}
	if override.CacheDir != "" {
		result.CacheDir = override.CacheDir
		// Derived paths follow the cache dir unless set explicitly.
		result.DBPath = filepath.Join(override.CacheDir, "ativo.db")
		result.LogPath = filepath.Join(override.CacheDir, "debug.log")
	}
	if override.DBPath != "" {
		result.DBPath = override.DBPath
	}
	if override.LogPath != "" {
		result.LogPath = override.LogPath
	}
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	if override.LogJSON {
		result.LogJSON = true
	}
	if override.StartPath != "" {
		result.StartPath = override.StartPath
	}
	if override.DefaultDestination != "" {
		result.DefaultDestination = override.DefaultDestination
	}
	if override.RequestTimeout > 0 {
		result.RequestTimeout = override.RequestTimeout
	}
	if override.RefreshMargin > 0 {
		result.RefreshMargin = override.RefreshMargin
	}
	if override.RefreshInterval > 0 {
		result.RefreshInterval = override.RefreshInterval
	}
	if override.MonitorInterval > 0 {
		result.MonitorInterval = override.MonitorInterval
	}
	if override.ToastDuration > 0 {
		result.ToastDuration = override.ToastDuration
	}
	if override.PageSize > 0 {
		result.PageSize = override.PageSize
	}
	if override.RecentLookups > 0 {
		result.RecentLookups = override.RecentLookups
	}
	return result
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.SupabaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		cfg.AnonKey = v
	}
	if v := os.Getenv("ATIVO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ATIVO_LOG_OUTPUT"); v != "" {
		cfg.LogPath = v
	}
	if v := os.Getenv("ATIVO_START_PATH"); v != "" {
		cfg.StartPath = v
	}
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
