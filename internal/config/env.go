package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Init loads an optional .env file and configures the shared logger for the
// API server.
func Init() {
	envErr := godotenv.Load()
	InitLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
	if envErr != nil {
		Logger.Debug("No .env file found, using environment variables")
	}
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	Logger.Warnf("Invalid duration %q for %s, using %s", raw, key, fallback)
	return fallback
}
