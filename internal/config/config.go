package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds database connection settings. It is loaded once at startup
// and passed explicitly into whatever opens the store; nothing re-reads the
// environment per operation.
type Config struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Database     string        `yaml:"database"`
	SSLMode      string        `yaml:"sslmode"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// Load reads config from env, overlaid by the yaml file named in
// DEVICEDESK_CONFIG when set. The database name defaults to the user.
func Load() (Config, error) {
	cfg := Config{
		Host:         getenvDefault("DB_HOST", "localhost"),
		Port:         getenvIntDefault("DB_PORT", 5432),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Database:     os.Getenv("DB_NAME"),
		SSLMode:      getenvDefault("DB_SSLMODE", "disable"),
		QueryTimeout: getenvDuration("DB_QUERY_TIMEOUT", 5*time.Second),
	}

	if path := os.Getenv("DEVICEDESK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.User == "" {
		return cfg, errors.New("config: database user required")
	}
	if cfg.Database == "" {
		cfg.Database = cfg.User
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 5 * time.Second
	}
	return cfg, nil
}

// DSN builds the pgx connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
