package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr          string        `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAddr         string        `env:"ADMIN_ADDR" envDefault:":9091"`
	PostgresURL       string        `env:"POSTGRES_URL,required"`
	JWTSecret         string        `env:"JWT_SECRET,required"`
	JWTIssuer         string        `env:"JWT_ISSUER" envDefault:"logging-api"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"87600h"` // issued tokens are long-lived
	StrictValidation  bool          `env:"STRICT_VALIDATION" envDefault:"true"`
	MaxBodySize       int64         `env:"MAX_BODY_SIZE_BYTES" envDefault:"1048576"` // 1MB
	DefaultSearchSize int           `env:"DEFAULT_SEARCH_SIZE" envDefault:"100"`
	TokenRateRPS      float64       `env:"TOKEN_RATE_LIMIT_RPS" envDefault:"1"`
	TokenRateBurst    int           `env:"TOKEN_RATE_BURST" envDefault:"5"`
	ServerName        string        `env:"SERVER_NAME"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.ServerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.ServerName = hostname
	}

	return cfg, nil
}
