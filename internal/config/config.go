// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the marketplace service.
type Config struct {
	Env               string
	Port              string
	GRPCPort          string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	ReconcileInterval int // minutes between bid_count reconciliations
}

// Production reports whether the service runs with production cookies and
// logging.
func (c *Config) Production() bool { return c.Env == "production" }

// Load reads environment variables, seeded from a .env file when one is
// present, and returns a validated Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	interval := 60
	if s := os.Getenv("RECONCILE_INTERVAL_MINUTES"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("RECONCILE_INTERVAL_MINUTES must be a positive integer, got %q", s)
		}
		interval = v
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	port := os.Getenv("MARKETPLACE_PORT")
	if port == "" {
		port = "9000"
	}

	grpcPort := os.Getenv("GRPC_PORT")
	if grpcPort == "" {
		grpcPort = "9090"
	}

	return &Config{
		Env:               env,
		Port:              port,
		GRPCPort:          grpcPort,
		DatabaseURL:       dbURL,
		RedisURL:          redisURL,
		JWTSecret:         secret,
		ReconcileInterval: interval,
	}, nil
}
