package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "sql", cfg.StoreBackend)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "notespark.db", cfg.DSN())
}

func TestLoadConfigYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notespark.yaml")
	yml := `
port: "9000"
db_driver: mysql
db_user: notes
db_password: secret
db_host: db:3306
db_name: notes
token_ttl: 2h
redis_url: redis://localhost:6379/0
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("TOKEN_TTL", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port, "environment overrides the file")
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "notes:secret@tcp(db:3306)/notes?parseTime=true&clientFoundRows=true", cfg.DSN())
}

func TestLoadConfigTokenTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "24")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)

	t.Setenv("TOKEN_TTL", "90m")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)

	t.Setenv("TOKEN_TTL", "soon")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownBackends(t *testing.T) {
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("DB_DRIVER", "postgres")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "DB_DRIVER")

	t.Setenv("DB_DRIVER", "")
	t.Setenv("STORE_BACKEND", "firestore")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "STORE_BACKEND")
}

func TestValidateServerSecret(t *testing.T) {
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("JWT_SECRET", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err, "the CLI may run with the default secret")
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.ErrorContains(t, cfg.ValidateServer(), "JWT_SECRET")

	cfg.JWTSecret = ""
	assert.Error(t, cfg.ValidateServer())

	t.Setenv("JWT_SECRET", "s3cr3t-from-env")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateServer())
}

func TestLoadConfigPollInterval(t *testing.T) {
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("POLL_INTERVAL", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.PollInterval)

	t.Setenv("POLL_INTERVAL", "250ms")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)

	t.Setenv("POLL_INTERVAL", "often")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "POLL_INTERVAL")

	t.Setenv("POLL_INTERVAL", "0s")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "POLL_INTERVAL")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
