package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string // empty disables the feed cache
	CORSOrigin  string
	JWTSecret   []byte
	AdminToken  string
	LogLevel    string
	LogJSON     bool
}

// Load reads .env (if present) and the environment. Missing optional vars
// fall back to local-dev defaults; JWT_SECRET is required.
func Load() (Config, error) {
	// Running without a .env file is fine in production, where env vars
	// are set directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: getenv("DATABASE_URL", "sqlite://shadowspace.db"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		CORSOrigin:  getenv("CORS_ORIGIN", "*"),
		AdminToken:  os.Getenv("X_ADMIN_TOKEN"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogJSON:     os.Getenv("LOG_JSON") == "true",
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET environment variable not set")
	}
	cfg.JWTSecret = []byte(secret)

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
