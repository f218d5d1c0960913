package config

import (
	"os"
	"strconv"

	"eformboard/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server ServerConfig
	Data   DataConfig
	Roles  RoleOverrides
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DataConfig holds upload and fleet-reference settings
type DataConfig struct {
	// DefaultFleetFile is an optional path to a fleet reference workbook used
	// when the caller uploads no fleet file. Empty means no default.
	DefaultFleetFile  string
	DefaultFleetSheet string
	MaxUploadBytes    int64
}

// RoleOverrides optionally pins the column roles instead of keyword
// auto-detection. Empty fields keep auto-detection.
type RoleOverrides struct {
	VesselCol string
	JobCol    string
	EFormCol  string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Data: DataConfig{
			DefaultFleetFile:  getEnvOrDefault("DEFAULT_FLEET_FILE", ""),
			DefaultFleetSheet: getEnvOrDefault("DEFAULT_FLEET_SHEET", "Export"),
			MaxUploadBytes:    getEnvInt64OrDefault("MAX_UPLOAD_BYTES", 50*1024*1024),
		},
		Roles: RoleOverrides{
			VesselCol: getEnvOrDefault("VESSEL_COL", ""),
			JobCol:    getEnvOrDefault("JOB_COL", ""),
			EFormCol:  getEnvOrDefault("EFORM_COL", ""),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Data.MaxUploadBytes <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_BYTES must be positive")
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

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
