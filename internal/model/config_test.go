package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := DefaultAppConfig()
	assert.Equal(t, def.Storage.Driver, cfg.Storage.Driver)
	assert.Equal(t, def.Storage.Path, cfg.Storage.Path)
	assert.Equal(t, def.Server.Addr, cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.Storage.Driver = DriverPostgres
	cfg.Storage.DSN = "postgres://planner@localhost/planner"
	cfg.Log.Level = "debug"
	cfg.Server.Addr = "127.0.0.1:7000"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage, loaded.Storage)
	assert.Equal(t, "debug", loaded.Log.Level)
	assert.Equal(t, "127.0.0.1:7000", loaded.Server.Addr)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))
	t.Setenv("PLANNER_LOG_LEVEL", "error")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  path: ~/tasks.db\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tasks.db"), cfg.Storage.Path)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unterminated\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		storage StorageConfig
		wantErr string
	}{
		{"sqlite ok", StorageConfig{Driver: DriverSQLite, Path: "x.db"}, ""},
		{"sqlite without path", StorageConfig{Driver: DriverSQLite}, "storage.path"},
		{"postgres ok", StorageConfig{Driver: DriverPostgres, DSN: "postgres://x"}, ""},
		{"postgres without dsn", StorageConfig{Driver: DriverPostgres}, "storage.dsn"},
		{"unknown driver", StorageConfig{Driver: "mongo"}, "unknown storage.driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{Storage: tt.storage}
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
