package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Pipeline PipelineConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
}

// PipelineConfig holds simulation pipeline configuration
type PipelineConfig struct {
	IntervalSeconds      int
	BaseTweetVolume      int
	SeasonStart          time.Time
	RandomSeed           int64 // 0 means seed from the clock
	MaxRequestsPerMinute int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int
}

// LoadConfig loads configuration from a .env file
func LoadConfig(envPath string, log *logrus.Logger) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}

	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	seasonStart, err := time.Parse(dateLayout, getEnv("SEASON_START", "2024-01-15"))
	if err != nil {
		return nil, fmt.Errorf("SEASON_START must be YYYY-MM-DD: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Courtside"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Pipeline: PipelineConfig{
			IntervalSeconds:      getEnvAsInt("PIPELINE_INTERVAL", 60),
			BaseTweetVolume:      getEnvAsInt("BASE_TWEET_VOLUME", 500),
			SeasonStart:          seasonStart,
			RandomSeed:           getEnvAsInt64("RANDOM_SEED", 0),
			MaxRequestsPerMinute: getEnvAsInt("API_MAX_REQUESTS_PER_MINUTE", 100),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./courtside.db"),
		},
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	log.WithField("file", envPath).Info("Config loaded successfully")
	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 gets an environment variable as an int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Pipeline.IntervalSeconds < 1 {
		return fmt.Errorf("PIPELINE_INTERVAL must be positive")
	}
	if config.Pipeline.BaseTweetVolume < 1 {
		return fmt.Errorf("BASE_TWEET_VOLUME must be positive")
	}
	if config.Pipeline.MaxRequestsPerMinute < 1 {
		return fmt.Errorf("API_MAX_REQUESTS_PER_MINUTE must be positive")
	}
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be a valid port number")
	}

	// if the db lives in a nested directory, create the directory
	dbDir := filepath.Dir(config.Database.Path)
	if dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}
