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

func TestLoad_DefaultsFillMissingKeys(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: memory
auth:
  jwt_secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(57), cfg.Workflow.DeliveryTableID)
	assert.Equal(t, "pos.events", cfg.RabbitMQ.Exchange)
}

func TestLoad_ParsesDurationsAndLists(t *testing.T) {
	path := writeConfig(t, `
outbox:
  poll_interval: 250ms
  batch_size: 10
realtime:
  allowed_origins: ["https://pos.example", "https://menu.example"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.PollInterval)
	assert.Equal(t, 10, cfg.Outbox.BatchSize)
	assert.Equal(t, []string{"https://pos.example", "https://menu.example"}, cfg.Realtime.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DB_PASSWORD", "db-pass")
	t.Setenv("PORT", "8081")

	cfg, err := Load(writeConfig(t, "auth:\n  jwt_secret: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "db-pass", cfg.Database.Password)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "database:\n  driver: oracle\n"))
	assert.ErrorContains(t, err, "unknown database driver")

	_, err = Load(writeConfig(t, "server: [\n"))
	assert.ErrorContains(t, err, "failed to parse yaml")

	t.Setenv("PORT", "abc")
	_, err = Load(writeConfig(t, "{}\n"))
	assert.ErrorContains(t, err, "invalid PORT")
}
