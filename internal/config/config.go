package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "studycal/internal/log"
)

// Supported values for StoreConfig.Driver.
const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StoreConfig selects and configures the key-value backend that holds the
// class and study session collections.
type StoreConfig struct {
	// Driver is one of "file", "redis", "postgres" or "memory".
	Driver string `yaml:"driver" json:"driver"`
	// Dir is the data directory for the file driver.
	Dir string `yaml:"dir" json:"dir"`

	RedisAddr     string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty" json:"-"`
	RedisDB       int    `yaml:"redis_db,omitempty" json:"redis_db,omitempty"`

	PostgresDSN string `yaml:"postgres_dsn,omitempty" json:"-"`
}

// BackupConfig controls periodic export snapshots.
type BackupConfig struct {
	// Cron is a 5-field cron expression (e.g. "0 3 * * *"). Empty disables
	// scheduled backups.
	Cron string `yaml:"cron" json:"cron"`
	// Dir receives student-calendar-*.json snapshots.
	Dir string `yaml:"dir" json:"dir"`
	// Keep is how many of the newest snapshots survive pruning.
	Keep int `yaml:"keep" json:"keep"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone whose wall clock decides "today" and
	// the current week. Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Store  StoreConfig  `yaml:"store" json:"store"`
	Backup BackupConfig `yaml:"backup" json:"backup"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		Timezone: "",
		LogLevel: "info",
		Store: StoreConfig{
			Driver: DriverFile,
			Dir:    "./data",
		},
		Backup: BackupConfig{
			Cron: "0 3 * * *",
			Dir:  "./data/backups",
			Keep: 14,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverFile, DriverRedis, DriverPostgres, DriverMemory:
	default:
		c.Store.Driver = DriverFile
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "./data"
	}
	if c.Store.Driver == DriverRedis && c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "127.0.0.1:6379"
	}

	if c.Backup.Dir == "" {
		c.Backup.Dir = filepath.Join(c.Store.Dir, "backups")
	}
	if c.Backup.Keep <= 0 {
		c.Backup.Keep = 14
	}
}

// ApplyEnv overrides config values from STUDYCAL_* environment variables.
// Callers typically load a .env file first (see cmd/studycal).
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("STUDYCAL_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getenv("STUDYCAL_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := getenv("STUDYCAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("STUDYCAL_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := getenv("STUDYCAL_DATA_DIR"); v != "" {
		// Backups follow the data dir unless they were placed elsewhere.
		if c.usesDefaultBackupDir() {
			c.Backup.Dir = ""
		}
		c.Store.Dir = v
	}
	if v := getenv("STUDYCAL_BACKUP_DIR"); v != "" {
		c.Backup.Dir = v
	}
	if v := getenv("STUDYCAL_REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
	}
	if v := getenv("STUDYCAL_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.RedisDB = n
		}
	}
	if v := getenv("STUDYCAL_POSTGRES_DSN"); v != "" {
		c.Store.PostgresDSN = v
	}
	c.Normalize()
}

// usesDefaultBackupDir reports whether Backup.Dir is the one derived from
// Store.Dir.
func (c *Config) usesDefaultBackupDir() bool {
	if c.Backup.Dir == "" {
		return true
	}
	return filepath.Clean(c.Backup.Dir) == filepath.Join(c.Store.Dir, "backups")
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".studycal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Location resolves Timezone, falling back to time.Local when it is empty
// or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Save is a convenience method on Config that delegates to Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
