package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings read from the environment.
type Config struct {
	DatabaseURL     string
	Port            string
	JWTSecret       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Port:            os.Getenv("APP_PORT"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 5 * time.Minute,
		AutoMigrate:     true,
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	var err error
	if cfg.MaxOpenConns, err = intEnv("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns); err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns, err = intEnv("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns); err != nil {
		return nil, err
	}
	if v := os.Getenv("DB_CONN_MAX_LIFETIME"); v != "" {
		if cfg.ConnMaxLifetime, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
		}
	}
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		if cfg.AutoMigrate, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
		}
	}
	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
