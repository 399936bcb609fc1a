package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.EqualValues(t, 20<<20, cfg.Server.MaxUploadBytes)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("ADMIN_SECRET_CODE", "s3cret")
	t.Setenv("S3_USE_PATH_STYLE", "true")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "tasks")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "s3cret", cfg.Auth.AdminSecretCode)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
	assert.EqualValues(t, 1024, cfg.Server.MaxUploadBytes)
	assert.Contains(t, cfg.Database.DSN(), "host=db")
	assert.Contains(t, cfg.Database.DSN(), "dbname=tasks")
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")
	t.Setenv("MAX_UPLOAD_BYTES", "lots")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.EqualValues(t, 20<<20, cfg.Server.MaxUploadBytes)
}
