package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Storage driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects and locates the relational store.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`

	// DSN is the Postgres connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

// Validate checks cross-field constraints that defaults cannot cover.
func (c *AppConfig) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/planner/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "planner", "config.yaml")
}

// dataDir returns ~/.local/share/planner, falling back to the working
// directory when the home directory is unknown.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "planner")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dir := dataDir()
	return &AppConfig{
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(dir, "planner-tasks.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "planner.log"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// PLANNER_* environment variables override file values. If the file does
// not exist, the defaults (plus environment overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("planner")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage.driver", def.Storage.Driver)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("storage.dsn", def.Storage.DSN)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("server.addr", def.Server.Addr)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage.driver", cfg.Storage.Driver)
	v.Set("storage.path", cfg.Storage.Path)
	v.Set("storage.dsn", cfg.Storage.DSN)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("server.addr", cfg.Server.Addr)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
