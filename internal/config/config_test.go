package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "DATABASE_URL", "REDIS_ADDR", "REDIS_DB", "LOG_LEVEL", "LOG_FORMAT", "RATE_LIMIT_PER_MINUTE", "ROOM_STALE_AFTER", "ROOM_CLEANUP_EVERY"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, 30*time.Minute, cfg.RoomStaleAfter)
	assert.Equal(t, 5*time.Minute, cfg.RoomCleanupEvery)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("ROOM_STALE_AFTER", "10m")
	t.Setenv("ROOM_CLEANUP_EVERY", "not-a-duration")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
	assert.Equal(t, 10*time.Minute, cfg.RoomStaleAfter)
	assert.Equal(t, 5*time.Minute, cfg.RoomCleanupEvery)
}
