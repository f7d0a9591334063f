package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverMongo    = "mongodb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Location LocationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// DatabaseConfig selects the record store and how to reach it.
// URI is a MongoDB connection string, a PostgreSQL DSN or a SQLite file path
// depending on Driver.
type DatabaseConfig struct {
	Driver  string
	URI     string
	Name    string
	PoolMin int
	PoolMax int
	Timeout time.Duration
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// LocationConfig points at an optional states/districts JSON file.
// An empty DataPath means the bundled table is used.
type LocationConfig struct {
	DataPath string
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the process environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DB_DRIVER", DriverMongo)
	v.SetDefault("DB_URI", "mongodb://localhost:27017")
	v.SetDefault("DB_NAME", "recordbook")
	v.SetDefault("DB_POOL_MIN", 0)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_TIMEOUT", "10s")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("LOCATION_DATA_PATH", "")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Driver:  strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			URI:     v.GetString("DB_URI"),
			Name:    v.GetString("DB_NAME"),
			PoolMin: v.GetInt("DB_POOL_MIN"),
			PoolMax: v.GetInt("DB_POOL_MAX"),
			Timeout: v.GetDuration("DB_TIMEOUT"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGIN")),
		},
		Location: LocationConfig{
			DataPath: v.GetString("LOCATION_DATA_PATH"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.Env == "" {
		return fmt.Errorf("ENV is required")
	}

	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			return fmt.Errorf("DB_URI is required for driver %s", c.Database.Driver)
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required for driver %s", c.Database.Driver)
		}
	case DriverPostgres, DriverSQLite:
		if c.Database.URI == "" {
			return fmt.Errorf("DB_URI is required for driver %s", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be one of %s, %s, %s, %s; got %q",
			DriverMongo, DriverPostgres, DriverSQLite, DriverMemory, c.Database.Driver)
	}

	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT must be a positive duration")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGIN is required")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
