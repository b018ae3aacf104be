package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Env      string // dev, prod
	HTTPPort string // default 8080

	PostgresDSN string // required

	RedisAddr     string // host:port
	RedisUsername string
	RedisPassword string

	LockTTL         time.Duration // how long a staff-day booking lock lives
	ShutdownTimeout time.Duration // graceful shutdown timeout
	WorkerInterval  time.Duration // how often the no-show worker runs
}

// Load reads configuration from the environment, after loading .env if one
// exists. REDIS_URL takes precedence over the individual REDIS_* variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             envOr("APP_ENV", "dev"),
		HTTPPort:        envOr("HTTP_PORT", "8080"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		LockTTL:         envDuration("LOCK_TTL", 5*time.Second),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		WorkerInterval:  envDuration("WORKER_INTERVAL", 15*time.Minute),
	}

	if cfg.PostgresDSN == "" {
		return Config{}, errors.New("POSTGRES_DSN is required")
	}
	if cfg.LockTTL <= 0 {
		return Config{}, errors.New("LOCK_TTL must be positive")
	}

	if raw := os.Getenv("REDIS_URL"); raw != "" {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		cfg.RedisAddr = opts.Addr
		cfg.RedisUsername = opts.Username
		cfg.RedisPassword = opts.Password
	} else {
		cfg.RedisAddr = envOr("REDIS_ADDR", "127.0.0.1:6379")
		cfg.RedisUsername = os.Getenv("REDIS_USERNAME")
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDuration accepts either a bare number of seconds or a Go duration
// string ("90s", "15m").
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, v, def)
	return def
}
