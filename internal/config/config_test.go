// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindlap/mindlap/pkg/errutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// isolate points XDG at an empty directory and clears variables a developer
// machine might carry.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DATABASE_URL", "")
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix) {
			name, _, _ := strings.Cut(kv, "=")
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.Equal(t, DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, uint64(DefaultDatabaseRetries), cfg.Database.Retries)
	assert.Equal(t, DefaultDatabaseTimeout, cfg.Database.Timeout)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.False(t, cfg.Reset.Debug)
	assert.False(t, cfg.Production())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	isolate(t)
	path := writeFile(t, `
environment: production
http:
  addr: ":9090"
database:
  url: postgres://file/db
  timeout: 5s
  retries: 2
session:
  secret: `+testSecret+`
log:
  format: text
reset:
  url: https://app.example.com/reset-password
`)

	cfg, err := Load(LoadOptions{File: path})
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://file/db", cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, uint64(2), cfg.Database.Retries)
	assert.Equal(t, testSecret, cfg.Session.Secret)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, "https://app.example.com/reset-password", cfg.Reset.URL)
}

func TestLoad_XDGDefaultFile(t *testing.T) {
	isolate(t)
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir := filepath.Join(base, "mindlap")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("http:\n  addr: \":7070\"\n"), 0o600))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "database:\n  url: postgres://file/db\nlog:\n  level: debug\n")
	t.Setenv("MINDLAP_LOG_LEVEL", "warn")
	t.Setenv("MINDLAP_SESSION_SECRET", testSecret)
	t.Setenv("MINDLAP_DATABASE_RETRIES", "9")
	t.Setenv("MINDLAP_RESET_DEBUG", "true")

	cfg, err := Load(LoadOptions{File: path})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, testSecret, cfg.Session.Secret)
	assert.Equal(t, uint64(9), cfg.Database.Retries)
	assert.True(t, cfg.Reset.Debug)
	assert.Equal(t, "postgres://file/db", cfg.Database.URL)
}

func TestLoad_BlankEnvironmentDoesNotMaskFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "database:\n  url: postgres://file/db\nlog:\n  level: debug\n")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MINDLAP_DATABASE_URL", "")
	t.Setenv("MINDLAP_LOG_LEVEL", "")

	cfg, err := Load(LoadOptions{File: path})
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/db", cfg.Database.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvEntry(t *testing.T) {
	key, value := envEntry("MINDLAP_LOG_LEVEL", "warn")
	assert.Equal(t, "log.level", key)
	assert.Equal(t, "warn", value)

	key, _ = envEntry("MINDLAP_LOG_LEVEL", "")
	assert.Empty(t, key)
}

func TestLoad_DatabaseURLPrecedence(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://plain/db")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "postgres://plain/db", cfg.Database.URL)

	t.Setenv("MINDLAP_DATABASE_URL", "postgres://prefixed/db")
	cfg, err = Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "postgres://prefixed/db", cfg.Database.URL)
}

func TestLoad_FlagsOverrideOnlyWhenSet(t *testing.T) {
	isolate(t)
	t.Setenv("MINDLAP_HTTP_ADDR", ":6060")
	t.Setenv("MINDLAP_LOG_FORMAT", "text")

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-format=json", "--database-url=postgres://flag/db"}))

	cfg, err := Load(LoadOptions{Flags: fs})
	require.NoError(t, err)

	assert.Equal(t, ":6060", cfg.HTTP.Addr, "unset flag must not override env")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "postgres://flag/db", cfg.Database.URL)
}

func validConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		HTTP:        HTTPConfig{Addr: DefaultHTTPAddr},
		Database:    DatabaseConfig{URL: "postgres://localhost/mindlap", Retries: 1, Timeout: time.Second},
		Session:     SessionConfig{Secret: testSecret},
		Log:         LogConfig{Format: "json", Level: "info"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown environment", mutate: func(c *Config) { c.Environment = "staging" }, key: "environment"},
		{name: "missing http addr", mutate: func(c *Config) { c.HTTP.Addr = "" }, key: "http.addr"},
		{name: "missing database url", mutate: func(c *Config) { c.Database.URL = "" }, key: "database.url"},
		{name: "zero database timeout", mutate: func(c *Config) { c.Database.Timeout = 0 }, key: "database.timeout"},
		{name: "short secret", mutate: func(c *Config) { c.Session.Secret = "short" }, key: "session.secret"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, key: "log.format"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, key: "log.level"},
		{name: "reset debug in production", mutate: func(c *Config) {
			c.Environment = EnvProduction
			c.Reset.Debug = true
		}, key: "reset.debug"},
		{name: "reset debug in development", mutate: func(c *Config) { c.Reset.Debug = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.key == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}
}

func TestConfig_ValidateDatabaseIgnoresSessionSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Secret = ""
	assert.NoError(t, cfg.ValidateDatabase())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "session.secret", envKey("MINDLAP_SESSION_SECRET"))
	assert.Equal(t, "environment", envKey("MINDLAP_ENVIRONMENT"))
	assert.Equal(t, "reset.debug", envKey("MINDLAP_RESET_DEBUG"))
}
