// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

// Package config loads MindLap configuration from defaults, an optional YAML
// file, the environment and command-line flags, in that order of precedence.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/mindlap/mindlap/internal/auth"
	"github.com/mindlap/mindlap/internal/xdg"
)

// EnvPrefix is the prefix for environment overrides, e.g. MINDLAP_SESSION_SECRET.
const EnvPrefix = "MINDLAP_"

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Default values.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultMetricsAddr     = "127.0.0.1:9100"
	DefaultDatabaseRetries = 5
	DefaultDatabaseTimeout = 30 * time.Second
	DefaultLogFormat       = "json"
	DefaultLogLevel        = "info"
)

// Config is the complete service configuration.
type Config struct {
	Environment string         `koanf:"environment"`
	HTTP        HTTPConfig     `koanf:"http"`
	Metrics     MetricsConfig  `koanf:"metrics"`
	Database    DatabaseConfig `koanf:"database"`
	Session     SessionConfig  `koanf:"session"`
	Log         LogConfig      `koanf:"log"`
	Reset       ResetConfig    `koanf:"reset"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL     string        `koanf:"url"`
	Retries uint64        `koanf:"retries"`
	Timeout time.Duration `koanf:"timeout"`
}

// SessionConfig holds the session cookie signing key.
type SessionConfig struct {
	Secret string `koanf:"secret"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// ResetConfig configures password-reset delivery.
type ResetConfig struct {
	// URL is the base URL of the page that accepts a reset token.
	URL string `koanf:"url"`
	// Debug returns issued tokens in the forgot-password response and logs
	// reset links. Rejected in production.
	Debug bool `koanf:"debug"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an explicit YAML file. When empty, the XDG default file is used
	// if it exists.
	File string
	// Flags are applied last; only flags that were set override other layers.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"environment":  "environment",
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"database-url": "database.url",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"reset-debug":  "reset.debug",
}

func defaults() map[string]any {
	return map[string]any{
		"environment":      EnvDevelopment,
		"http.addr":        DefaultHTTPAddr,
		"metrics.addr":     DefaultMetricsAddr,
		"database.url":     "",
		"database.retries": DefaultDatabaseRetries,
		"database.timeout": DefaultDatabaseTimeout,
		"session.secret":   "",
		"log.format":       DefaultLogFormat,
		"log.level":        DefaultLogLevel,
		"reset.url":        "",
		"reset.debug":      false,
	}
}

// BindFlags registers the flags understood by Load on fs. Flag defaults are
// informational; unset flags never override file or environment values.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("environment", EnvDevelopment, "deployment environment (development or production)")
	fs.String("http-addr", DefaultHTTPAddr, "HTTP API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.Bool("reset-debug", false, "include reset tokens in forgot-password responses (development only)")
}

// Load builds a Config from all configured layers. It does not validate.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "defaults").Wrap(err)
	}

	path := opts.File
	if path == "" {
		path = xdg.DefaultConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "file").With("path", path).Wrap(err)
		}
	}

	databaseURL := env.ProviderWithValue("DATABASE_URL", ".", func(key, value string) (string, any) {
		if key != "DATABASE_URL" || value == "" {
			return "", nil
		}
		return "database.url", value
	})
	if err := k.Load(databaseURL, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "env").Wrap(err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envEntry), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "env").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}

// envKey turns MINDLAP_SESSION_SECRET into session.secret.
// envEntry maps a MINDLAP_ variable to its key. Empty values are skipped so
// an exported but blank variable does not mask lower layers.
func envEntry(name, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	return envKey(name), value
}

func envKey(name string) string {
	name = strings.TrimPrefix(name, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(name), "_", ".")
}

// Production reports whether the service runs in production mode.
func (c *Config) Production() bool {
	return c.Environment == EnvProduction
}

// ValidateDatabase checks only the settings needed to reach PostgreSQL.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database URL is required (set DATABASE_URL or database.url)")
	}
	if c.Database.Timeout <= 0 {
		return invalid("database.timeout", "database timeout must be positive")
	}
	return nil
}

// Validate checks everything the serve command needs.
func (c *Config) Validate() error {
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return invalid("environment", "environment must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment)
	}
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http address is required")
	}
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if len(c.Session.Secret) < auth.MinSessionSecretLength {
		return invalid("session.secret", "session secret must be at least %d bytes", auth.MinSessionSecretLength)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return invalid("log.level", "unknown log level %q", c.Log.Level)
	}
	if c.Reset.Debug && c.Production() {
		return invalid("reset.debug", "reset debug output cannot be enabled in production")
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}
