package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string
	AllowedOrigin string

	// RedisAddr empty means single-server in-memory hub.
	RedisAddr string
	ServerID  string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func Load() Config {
	accessMinutes := envInt("ACCESS_TOKEN_TTL_MINUTES", 15)
	refreshHours := envInt("REFRESH_TOKEN_TTL_HOURS", 30*24)

	return Config{
		Port:            envOrDefault("PORT", "8080"),
		MongoURI:        envOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   envOrDefault("MONGODB_DATABASE", "wassup"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AllowedOrigin:   envOrDefault("ALLOWED_ORIGIN", "http://localhost:3000"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		ServerID:        envOrDefault("SERVER_ID", "server-1"),
		AccessTokenTTL:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenTTL: time.Duration(refreshHours) * time.Hour,
	}
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
