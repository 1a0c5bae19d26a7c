package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/store"
)

// FileName is the config file at the root of a tally repo.
const FileName = "tally.yaml"

// Environment overrides, applied after the file is read.
const (
	EnvStoreDriver      = "TALLY_STORE_DRIVER"
	EnvStoreDSN         = "TALLY_STORE_DSN"
	EnvLogLevel         = "TALLY_LOG_LEVEL"
	EnvLogFormat        = "TALLY_LOG_FORMAT"
	EnvSweepConcurrency = "TALLY_SWEEP_CONCURRENCY"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
	Sweep SweepConfig `yaml:"sweep"`
	Audit AuditConfig `yaml:"audit"`
	Git   GitConfig   `yaml:"git"`
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite and bolt, relative to the repo. sqlite also
	// takes a file: URI; foreign keys and immediate write locks are always on.
	DSN string `yaml:"dsn,omitempty"`
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SweepConfig controls reconcile-all.
type SweepConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// AuditConfig controls the reconcile log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// GitConfig controls committing the reconcile log when the repo is under git.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a tally.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default(store.DriverSQLite)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new repo.
func Default(driver string) *Config {
	return &Config{
		Store: StoreConfig{
			Driver: driver,
			DSN:    DefaultDSN(driver),
		},
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
		Sweep: SweepConfig{
			Concurrency: 1,
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    "logs/reconcile-log.csv",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Tally",
			AuthorEmail: "tally@localhost",
		},
	}
}

// DefaultDSN returns the default location for file-backed drivers.
func DefaultDSN(driver string) string {
	switch driver {
	case store.DriverSQLite:
		return "data/tally.db"
	case store.DriverBolt:
		return "data/tally.bolt"
	default:
		return ""
	}
}

// ApplyEnv overrides fields from the environment. Variables may also come
// from a .env file at dotenvPath; the process environment wins over the file.
// A missing .env file is not an error.
func (c *Config) ApplyEnv(dotenvPath string) error {
	fileEnv := map[string]string{}
	if dotenvPath != "" {
		vars, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			fileEnv = vars
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("reading %s: %w", dotenvPath, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}

	if v, ok := lookup(EnvStoreDriver); ok {
		c.Store.Driver = v
	}
	if v, ok := lookup(EnvStoreDSN); ok {
		c.Store.DSN = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.Log.Format = v
	}
	if v, ok := lookup(EnvSweepConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSweepConcurrency, err)
		}
		c.Sweep.Concurrency = n
	}
	return nil
}

// Validate checks that the config can be used to open a store and a logger.
func (c *Config) Validate() error {
	if !slices.Contains(store.Drivers, c.Store.Driver) {
		return fmt.Errorf("unknown store driver %q (want one of %v)", c.Store.Driver, store.Drivers)
	}
	if c.Store.Driver != store.DriverMemory && c.Store.DSN == "" {
		return fmt.Errorf("store driver %s requires a dsn", c.Store.Driver)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		return fmt.Errorf("unknown log format %q (want %s or %s)", c.Log.Format, FormatText, FormatJSON)
	}
	if c.Sweep.Concurrency < 1 {
		return fmt.Errorf("sweep concurrency must be at least 1, got %d", c.Sweep.Concurrency)
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit log enabled without a path")
	}
	if c.Git.AutoCommit && (c.Git.AuthorName == "" || c.Git.AuthorEmail == "") {
		return fmt.Errorf("git auto_commit needs author_name and author_email")
	}
	return nil
}
