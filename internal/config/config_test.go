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

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVER_HOST", "")
	path := writeConfig(t, `
server:
  port: 8081
database:
  host: localhost
  port: 5432
  user: crush
  password: secret
  dbname: campuscrush
jwt:
  secret: s3cr3t
  ttl: 48h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 48*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxImageBytes)
	assert.Equal(t, 6, cfg.Upload.MaxPhotos)
	assert.Equal(t, "campuscrush.events", cfg.AMQP.Exchange)
	assert.Equal(t, "host=localhost port=5432 user=crush password=secret dbname=campuscrush sslmode=disable", cfg.Database.DSN())
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file
jwt:
  secret: from-file
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("PORT", "9999")
	t.Setenv("SERVER_HOST", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "postgres://env", cfg.Database.DSN())
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr())
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-only")
	t.Setenv("DATABASE_URL", "postgres://env-only")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.JWT.Secret)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeConfig(t, `
database:
  url: postgres://x
`)

	_, err := Load(path)
	assert.EqualError(t, err, "jwt secret is required")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}
