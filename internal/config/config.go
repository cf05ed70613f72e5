// Package config loads the service configuration from config.toml, an
// optional environment overlay, and TAGLINE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/tagline/pkg/database"
	"github.com/JaimeStill/tagline/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvTaglineEnv             = "TAGLINE_ENV"
	EnvTaglineConfigDir       = "TAGLINE_CONFIG_DIR"
	EnvTaglineShutdownTimeout = "TAGLINE_SHUTDOWN_TIMEOUT"
	EnvTaglineVersion         = "TAGLINE_VERSION"
)

var databaseEnv = &database.Env{
	Driver:          "TAGLINE_DB_DRIVER",
	Path:            "TAGLINE_DB_PATH",
	Host:            "TAGLINE_DB_HOST",
	Port:            "TAGLINE_DB_PORT",
	Name:            "TAGLINE_DB_NAME",
	User:            "TAGLINE_DB_USER",
	Password:        "TAGLINE_DB_PASSWORD",
	SSLMode:         "TAGLINE_DB_SSL_MODE",
	MaxOpenConns:    "TAGLINE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "TAGLINE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "TAGLINE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "TAGLINE_DB_CONN_TIMEOUT",
	AutoMigrate:     "TAGLINE_DB_AUTO_MIGRATE",
}

var storageEnv = &storage.Env{
	Provider:         "TAGLINE_STORAGE_PROVIDER",
	Root:             "TAGLINE_STORAGE_ROOT",
	ContainerName:    "TAGLINE_STORAGE_CONTAINER_NAME",
	ConnectionString: "TAGLINE_STORAGE_CONNECTION_STRING",
	AccountURL:       "TAGLINE_STORAGE_ACCOUNT_URL",
	Region:           "TAGLINE_STORAGE_REGION",
	Endpoint:         "TAGLINE_STORAGE_ENDPOINT",
	UsePathStyle:     "TAGLINE_STORAGE_USE_PATH_STYLE",
	AccessKeyID:      "TAGLINE_STORAGE_ACCESS_KEY_ID",
	SecretAccessKey:  "TAGLINE_STORAGE_SECRET_ACCESS_KEY",
}

// Config is the root configuration for the Tagline service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Logging         LoggingConfig   `toml:"logging"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Labeling        LabelingConfig  `toml:"labeling"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the TAGLINE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvTaglineEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml from TAGLINE_CONFIG_DIR (or the working directory)
// when present, applies any environment overlay, and finalizes all values.
// Without a config file, defaults and environment variables supply everything.
func Load() (*Config, error) {
	return LoadDir(os.Getenv(EnvTaglineConfigDir))
}

// LoadDir is Load with an explicit config directory.
func LoadDir(dir string) (*Config, error) {
	cfg := &Config{}

	base := configPath(dir, BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Labeling.Merge(&overlay.Labeling)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Labeling.Finalize(); err != nil {
		return fmt.Errorf("labeling: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvTaglineShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvTaglineVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func configPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvTaglineEnv); env != "" {
		path := configPath(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
