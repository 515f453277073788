package config

import (
	"os"
	"strconv"
	"time"

	"coagdose/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Phreeqc PhreeqcConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// PhreeqcConfig holds solver subprocess settings
type PhreeqcConfig struct {
	BinaryPath   string
	DatabasePath string
	WorkDir      string
	Timeout      time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Phreeqc: PhreeqcConfig{
			BinaryPath:   os.Getenv("PHREEQC_BIN"),
			DatabasePath: os.Getenv("PHREEQC_DATABASE"),
			WorkDir:      getEnvOrDefault("PHREEQC_WORKDIR", ""),
			Timeout:      time.Duration(getEnvIntOrDefault("PHREEQC_TIMEOUT_SEC", 60)) * time.Second,
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Phreeqc.BinaryPath == "" {
		return errors.ConfigInvalid("PHREEQC_BIN is required")
	}
	if config.Phreeqc.DatabasePath == "" {
		return errors.ConfigInvalid("PHREEQC_DATABASE is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
