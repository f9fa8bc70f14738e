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

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		path := writeConfig(t, `
env: dev
http_server:
  address: "localhost:8082"
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "dev", cfg.Env)
		assert.Equal(t, DriverMongo, cfg.Storage.Driver)
		assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.Mongo.URI)
		assert.Equal(t, "users", cfg.Storage.Mongo.Collection)
		assert.Equal(t, "localhost:8082", cfg.HTTPServer.Addr)
		assert.Equal(t, 10*time.Second, cfg.HTTPServer.ReadTimeout)
		assert.Equal(t, 5*time.Second, cfg.HTTPServer.ShutdownTimeout)
	})

	t.Run("reads every key", func(t *testing.T) {
		path := writeConfig(t, `
env: prod
storage:
  driver: sqlite
  path: /tmp/users.db
  mongo:
    database: people
http_server:
  address: ":9000"
  idle_timeout: 2m
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, "/tmp/users.db", cfg.Storage.Path)
		assert.Equal(t, "people", cfg.Storage.Mongo.Database)
		assert.Equal(t, 2*time.Minute, cfg.HTTPServer.IdleTimeout)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "memory")
		t.Setenv("HTTP_SERVER_ADDR", ":7000")
		path := writeConfig(t, `
env: dev
storage:
  driver: sqlite
http_server:
  address: ":9000"
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, DriverMemory, cfg.Storage.Driver)
		assert.Equal(t, ":7000", cfg.HTTPServer.Addr)
	})

	t.Run("unknown driver", func(t *testing.T) {
		path := writeConfig(t, `
env: dev
storage:
  driver: postgres
http_server:
  address: ":9000"
`)
		_, err := Load(path)
		assert.ErrorContains(t, err, `unknown storage driver "postgres"`)
	})

	t.Run("missing required address", func(t *testing.T) {
		_, err := Load(writeConfig(t, "env: dev\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "config file does not exist")
	})
}
