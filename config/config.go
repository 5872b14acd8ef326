package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	LogDir        string

	// Feed
	FeedURL string

	// Bar generation
	BarWindow   int    // base intervals per window bar (0 disables windows)
	BarInterval string // "1m", "1h" or "d"
	DailyEnd    string // session close "HH:MM", required for daily bars
	SeriesSize  int    // rolling series capacity per instrument

	// Trading session calendar (YAML file, empty = accept all ticks)
	SessionsFile string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/bars.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogDir:        getEnv("LOG_DIR", "logs"),

		FeedURL: getEnv("FEED_URL", "ws://localhost:9001/ws"),

		BarWindow:   getEnvInt("BAR_WINDOW", 0),
		BarInterval: getEnv("BAR_INTERVAL", "1m"),
		DailyEnd:    getEnv("DAILY_END", "15:00"),
		SeriesSize:  getEnvInt("SERIES_SIZE", 100),

		SessionsFile: getEnv("SESSIONS_FILE", ""),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
