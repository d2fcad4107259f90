// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	// Canonical store
	Postgres *PostgresConfig

	// Pipeline settings
	CanonicalTable  string // advisory-lock key for mutually exclusive imports
	HeaderScanDepth int
	FeedCapacity    int

	// Optional template overrides
	MappingFile string // YAML alias dictionary
	RegionsFile string // YAML region list

	// Watch mode
	InboxDir        string
	DebounceMillis  int
	MoveProcessed   bool
	ProcessedSubdir string
	FailedSubdir    string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		CanonicalTable:  getEnv("CANONICAL_TABLE", "schemes"),
		HeaderScanDepth: getEnvAsInt("HEADER_SCAN_DEPTH", 20),
		FeedCapacity:    getEnvAsInt("FEED_CAPACITY", 1000),

		MappingFile: getEnv("MAPPING_FILE", ""),
		RegionsFile: getEnv("REGIONS_FILE", ""),

		InboxDir:        getEnv("INBOX_DIR", ""),
		DebounceMillis:  getEnvAsInt("INBOX_DEBOUNCE_MS", 2000),
		MoveProcessed:   getEnvAsBool("INBOX_MOVE_PROCESSED", true),
		ProcessedSubdir: getEnv("INBOX_PROCESSED_SUBDIR", "processed"),
		FailedSubdir:    getEnv("INBOX_FAILED_SUBDIR", "failed"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
	}
	cfg.Postgres = pgConfig

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Postgres == nil {
		return errors.New("postgreSQL configuration is required")
	}

	if c.CanonicalTable == "" {
		return errors.New("canonical table name is required")
	}

	if c.HeaderScanDepth <= 0 {
		return errors.New("header scan depth must be positive")
	}

	if c.FeedCapacity <= 0 {
		return errors.New("feed capacity must be positive")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
