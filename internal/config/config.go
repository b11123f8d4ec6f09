package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, populated from the environment after an
// optional .env file is loaded. DatabaseURL and RedisURL may be empty: the
// service then starts in degraded mode without durability or background
// workers, and live routing still works.
type Config struct {
	Addr             string        `envconfig:"ADDR" default:":8080"`
	DatabaseURL      string        `envconfig:"DB_URL"`
	RedisURL         string        `envconfig:"REDIS_URL"`
	HistoryPageSize  int           `envconfig:"HISTORY_PAGE_SIZE" default:"50"`
	LastSeenTTL      time.Duration `envconfig:"LAST_SEEN_TTL" default:"720h"`
	QueueConcurrency int           `envconfig:"QUEUE_CONCURRENCY" default:"10"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads .env if present and resolves the configuration from the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: .env file not found or could not be loaded: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.HistoryPageSize <= 0 {
		cfg.HistoryPageSize = 50
	}
	return &cfg, nil
}
