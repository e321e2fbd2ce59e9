package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9000
database:
  host: db
  dbname: pois
  user: poi
  auto_migrate: true
auth:
  token_ttl: 30m
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, StoragePostgres, cfg.Database.Storage)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "host=db port=5432 user=poi password= dbname=pois sslmode=disable", cfg.Database.DSN())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("POI_DB_STORAGE", StorageMemory)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  storage: memory
`)
	t.Setenv("POI_SERVER_PORT", "7000")
	t.Setenv("POI_AUTH_TOKEN_TTL", "5m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TokenTTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("unknown storage", func(t *testing.T) {
		_, err := Load(writeConfig(t, "database:\n  storage: mongo\n"))
		assert.Error(t, err)
	})

	t.Run("postgres without host", func(t *testing.T) {
		_, err := Load(writeConfig(t, "database:\n  storage: postgres\n"))
		assert.Error(t, err)
	})

	t.Run("bad port env", func(t *testing.T) {
		t.Setenv("POI_SERVER_PORT", "eighty")
		_, err := Load(writeConfig(t, "database:\n  storage: memory\n"))
		assert.Error(t, err)
	})
}
