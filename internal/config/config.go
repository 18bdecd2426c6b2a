// Package config loads application settings from a YAML file with
// environment overrides. Environment always wins so containerized deploys
// can run without a config file at all.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by the loader.
const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
	EnvUpstreamKey  = "GENAI_API_KEY"
)

// Defaults applied when the config file omits a value.
const (
	defaultJWTExpiry   = 30 * 24 * time.Hour
	defaultSQLitePath  = "5399ai.db"
	defaultLatency     = 500 * time.Millisecond
	defaultUploadsDir  = "uploads"
	defaultRateLimit   = 0 // 0 disables request limiting.
	defaultRedisPrefix = "5399ai:rl"
)

// ErrMissingDatabaseDSN indicates no database DSN could be resolved.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database.dsn` in the config file or DB_CONNECTION)")

// JWT holds session token settings.
type JWT struct {
	Secret string        `yaml:"-"`
	Expiry time.Duration `yaml:"-"`
}

// RateLimit holds per-user request limiting settings for the generation
// endpoints.
type RateLimit struct {
	PerSecond     int    `yaml:"per-second"`
	RedisEnabled  bool   `yaml:"redis-enabled"`
	RedisAddr     string `yaml:"redis-addr"`
	RedisPassword string `yaml:"redis-password"`
	RedisDB       int    `yaml:"redis-db"`
	RedisPrefix   string `yaml:"redis-prefix"`
}

// Upstream holds the generation API collaborator settings.
type Upstream struct {
	BaseURL string `yaml:"base-url"`
	APIKey  string `yaml:"api-key"`
}

// Admin holds the seeded operator credential.
type Admin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config is the fully resolved application configuration.
type Config struct {
	DatabaseDSN string        `yaml:"-"`
	JWT         JWT           `yaml:"jwt"`
	Latency     time.Duration `yaml:"latency"` // Simulated network latency on account operations.
	UploadsDir  string        `yaml:"uploads-dir"`
	RateLimit   RateLimit     `yaml:"rate-limit"`
	Upstream    Upstream      `yaml:"upstream"`
	Admin       Admin         `yaml:"admin"`
}

// fileConfig maps the YAML document. Durations travel as strings
// ("500ms", "1h") and are parsed explicitly.
type fileConfig struct {
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	JWT struct {
		Secret string `yaml:"secret"`
		Expiry string `yaml:"expiry"`
	} `yaml:"jwt"`
	Latency    string    `yaml:"latency"`
	UploadsDir string    `yaml:"uploads-dir"`
	RateLimit  RateLimit `yaml:"rate-limit"`
	Upstream   Upstream  `yaml:"upstream"`
	Admin      Admin     `yaml:"admin"`
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the config file at path (when it exists) and applies
// environment overrides and defaults.
func Load(path string) (Config, error) {
	var file fileConfig

	data, errRead := os.ReadFile(path)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &file); errUnmarshal != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	case os.IsNotExist(errRead):
		// Environment-only deploys are fine.
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	cfg := Config{
		DatabaseDSN: strings.TrimSpace(file.Database.DSN),
		JWT:         JWT{Secret: strings.TrimSpace(file.JWT.Secret)},
		UploadsDir:  strings.TrimSpace(file.UploadsDir),
		RateLimit:   file.RateLimit,
		Upstream:    file.Upstream,
		Admin:       file.Admin,
	}
	if raw := strings.TrimSpace(file.JWT.Expiry); raw != "" {
		if expiry, errParse := time.ParseDuration(raw); errParse == nil && expiry > 0 {
			cfg.JWT.Expiry = expiry
		}
	}
	cfg.Latency = -1
	if raw := strings.TrimSpace(file.Latency); raw != "" {
		if latency, errParse := time.ParseDuration(raw); errParse == nil && latency >= 0 {
			cfg.Latency = latency
		}
	}

	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultSQLitePath
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		cfg.JWT.Secret = secret
	}
	if raw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); raw != "" {
		if expiry, errParse := time.ParseDuration(raw); errParse == nil && expiry > 0 {
			cfg.JWT.Expiry = expiry
		}
	}
	if cfg.JWT.Expiry <= 0 {
		cfg.JWT.Expiry = defaultJWTExpiry
	}

	if key := strings.TrimSpace(os.Getenv(EnvUpstreamKey)); key != "" {
		cfg.Upstream.APIKey = key
	}

	if cfg.Latency < 0 {
		// Unset in the file; an explicit "0s" disables the delay.
		cfg.Latency = defaultLatency
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = defaultUploadsDir
	}
	if cfg.RateLimit.PerSecond < 0 {
		cfg.RateLimit.PerSecond = defaultRateLimit
	}
	if cfg.RateLimit.RedisPrefix == "" {
		cfg.RateLimit.RedisPrefix = defaultRedisPrefix
	}
	return cfg, nil
}
