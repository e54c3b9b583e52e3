package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_BCRYPT_COST", "")
	t.Setenv("AUTH_ADMIN_USERNAME", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Positive(t, cfg.Auth.HashWorkers)
}

func TestLoad_ClampsBcryptCost(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	t.Setenv("AUTH_BCRYPT_COST", "1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)

	t.Setenv("AUTH_BCRYPT_COST", "99")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 31, cfg.Auth.BcryptCost)
}

func TestLoad_RejectsShortSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestLoad_UnsetEnvRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")

	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.App.Env)
}

func TestLoad_DevelopmentSecretFallback(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}

func TestAppConfig_BodyLimit(t *testing.T) {
	assert.Equal(t, 16*1024*1024, AppConfig{BodyLimitMB: 16}.BodyLimit())
	assert.Equal(t, 4*1024*1024, AppConfig{}.BodyLimit())
}
