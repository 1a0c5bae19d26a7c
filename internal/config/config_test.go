package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/store"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default(store.DriverBolt)
	cfg.Sweep.Concurrency = 4
	cfg.Log.Format = FormatJSON

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default(store.DriverSQLite)

	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "data/tally.db", cfg.Store.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, FormatText, cfg.Log.Format)
	assert.Equal(t, 1, cfg.Sweep.Concurrency)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "logs/reconcile-log.csv", cfg.Audit.Path)
	assert.False(t, cfg.Git.AutoCommit)
	assert.Equal(t, "Tally", cfg.Git.AuthorName)
	require.NoError(t, cfg.Validate())

	assert.Empty(t, Default(store.DriverPostgres).Store.DSN)
	assert.Empty(t, Default(store.DriverMemory).Store.DSN)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: memory\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, store.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1, cfg.Sweep.Concurrency)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default(store.DriverSQLite)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "driver: sqlite")
	assert.Contains(t, contents, "dsn: data/tally.db")
	assert.Contains(t, contents, "concurrency: 1")
	assert.Contains(t, contents, "path: logs/reconcile-log.csv")
	assert.Contains(t, contents, "auto_commit: false")
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte(
		"TALLY_STORE_DRIVER=postgres\nTALLY_STORE_DSN=postgres://file\nTALLY_LOG_LEVEL=debug\n"), 0o644))
	t.Setenv(EnvStoreDSN, "postgres://process")
	t.Setenv(EnvSweepConcurrency, "8")

	cfg := Default(store.DriverSQLite)
	require.NoError(t, cfg.ApplyEnv(dotenv))

	assert.Equal(t, store.DriverPostgres, cfg.Store.Driver, "from .env")
	assert.Equal(t, "postgres://process", cfg.Store.DSN, "process env wins over .env")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, FormatText, cfg.Log.Format, "untouched")
	assert.Equal(t, 8, cfg.Sweep.Concurrency)
}

func TestApplyEnv_MissingDotenv(t *testing.T) {
	cfg := Default(store.DriverSQLite)
	require.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), ".env")))
	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
}

func TestApplyEnv_BadConcurrency(t *testing.T) {
	t.Setenv(EnvSweepConcurrency, "many")
	cfg := Default(store.DriverSQLite)
	err := cfg.ApplyEnv("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvSweepConcurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "unknown store driver"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = store.DriverPostgres; c.Store.DSN = "" }, "requires a dsn"},
		{"memory without dsn", func(c *Config) { c.Store.Driver = store.DriverMemory; c.Store.DSN = "" }, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "unknown log format"},
		{"zero concurrency", func(c *Config) { c.Sweep.Concurrency = 0 }, "at least 1"},
		{"audit without path", func(c *Config) { c.Audit.Path = "" }, "without a path"},
		{"audit disabled without path", func(c *Config) { c.Audit.Enabled = false; c.Audit.Path = "" }, ""},
		{"git without author", func(c *Config) { c.Git.AutoCommit = true; c.Git.AuthorEmail = "" }, "author_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(store.DriverSQLite)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
