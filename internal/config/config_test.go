package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGODB_DATABASE", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("REFRESH_TOKEN_TTL_HOURS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "wassup", cfg.MongoDatabase)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("MONGODB_DATABASE", "chat")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SERVER_ID", "server-7")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "5")

	cfg := Load()

	assert.Equal(t, "9001", cfg.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
	assert.Equal(t, "chat", cfg.MongoDatabase)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "server-7", cfg.ServerID)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "not-a-number")
	t.Setenv("REFRESH_TOKEN_TTL_HOURS", "-3")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
}
