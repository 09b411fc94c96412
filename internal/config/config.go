package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AllowedOrigin string
	StaticDir     string
	LogLevel      string
	LogJSON       bool

	// лимит апгрейдов /ws на один ip в минуту; 0 выключает
	RateLimitPerMinute int

	RoomStaleAfter   time.Duration
	RoomCleanupEvery time.Duration
}

// Load читает .env, если он есть, затем переменные окружения
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:            getEnv("APP_PORT", "3000"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		AllowedOrigin:      os.Getenv("ALLOWED_ORIGIN"),
		StaticDir:          os.Getenv("STATIC_DIR"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogJSON:            os.Getenv("LOG_FORMAT") == "json",
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 60),
		RoomStaleAfter:     getDuration("ROOM_STALE_AFTER", 30*time.Minute),
		RoomCleanupEvery:   getDuration("ROOM_CLEANUP_EVERY", 5*time.Minute),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
