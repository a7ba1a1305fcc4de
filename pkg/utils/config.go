package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Listen       string
	MapwarperURL string
	CacheTTL     time.Duration
	FetchWorkers int
}

// LoadConfig reads configuration from the environment. A .env file in
// the working directory is honored when present (local dev); real
// deployments set the variables directly.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Listen:       ":8080",
		MapwarperURL: "https://mapwarper.net",
		CacheTTL:     24 * time.Hour,
		FetchWorkers: 5,
	}

	if v := os.Getenv("MAPBRIDGE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("MAPBRIDGE_MAPWARPER_URL"); v != "" {
		cfg.MapwarperURL = v
	}
	if v := os.Getenv("MAPBRIDGE_CACHE_TTL_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.CacheTTL = time.Duration(h) * time.Hour
		}
	}
	if v := os.Getenv("MAPBRIDGE_FETCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchWorkers = n
		}
	}
	return cfg
}
