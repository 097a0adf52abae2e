package utils

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_ENV_VAR", "test-value")
	defer os.Unsetenv("TEST_ENV_VAR")

	value := getEnv("TEST_ENV_VAR", "default-value")
	assert.Equal(t, "test-value", value)

	value = getEnv("NON_EXISTENT_VAR", "default-value")
	assert.Equal(t, "default-value", value)
}

func TestGetEnvAsInt(t *testing.T) {
	os.Setenv("TEST_INT_VAR", "42")
	defer os.Unsetenv("TEST_INT_VAR")

	value := getEnvAsInt("TEST_INT_VAR", 10)
	assert.Equal(t, 42, value)

	os.Setenv("TEST_INVALID_INT_VAR", "not-an-int")
	defer os.Unsetenv("TEST_INVALID_INT_VAR")

	value = getEnvAsInt("TEST_INVALID_INT_VAR", 10)
	assert.Equal(t, 10, value)

	value = getEnvAsInt("NON_EXISTENT_VAR", 10)
	assert.Equal(t, 10, value)
}

func TestGetEnvAsInt64(t *testing.T) {
	os.Setenv("TEST_INT64_VAR", "1234567890123")
	defer os.Unsetenv("TEST_INT64_VAR")

	value := getEnvAsInt64("TEST_INT64_VAR", 10)
	assert.Equal(t, int64(1234567890123), value)

	value = getEnvAsInt64("NON_EXISTENT_VAR", 10)
	assert.Equal(t, int64(10), value)
}

func TestValidateConfig(t *testing.T) {
	validConfig := &Config{
		Pipeline: PipelineConfig{
			IntervalSeconds:      60,
			BaseTweetVolume:      500,
			SeasonStart:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			MaxRequestsPerMinute: 100,
		},
		Database: DatabaseConfig{Path: "./test.db"},
		Server:   ServerConfig{Port: 8080},
	}
	assert.NoError(t, validateConfig(validConfig))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "non-positive interval", mutate: func(c *Config) { c.Pipeline.IntervalSeconds = 0 }},
		{name: "non-positive volume", mutate: func(c *Config) { c.Pipeline.BaseTweetVolume = 0 }},
		{name: "non-positive rate limit", mutate: func(c *Config) { c.Pipeline.MaxRequestsPerMinute = 0 }},
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := *validConfig
			tc.mutate(&config)
			assert.Error(t, validateConfig(&config))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "test.env")
	envContent := `APP_NAME=Courtside Test
SEASON_START=2024-02-01
PIPELINE_INTERVAL=30
BASE_TWEET_VOLUME=250
RANDOM_SEED=1234
SERVER_PORT=9090
DATABASE_PATH=` + filepath.Join(t.TempDir(), "data", "test.db") + `
`
	require.NoError(t, os.WriteFile(envPath, []byte(envContent), 0644))

	config, err := LoadConfig(envPath, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "Courtside Test", config.App.Name)
	assert.Equal(t, 30, config.Pipeline.IntervalSeconds)
	assert.Equal(t, 250, config.Pipeline.BaseTweetVolume)
	assert.Equal(t, int64(1234), config.Pipeline.RandomSeed)
	assert.Equal(t, 9090, config.Server.Port)
	assert.True(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).Equal(config.Pipeline.SeasonStart))
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"), testLogger())
	assert.Error(t, err)
}

func TestLoadConfigInvalidSeasonStart(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("\n"), 0644))

	// set directly since godotenv never overrides existing variables
	t.Setenv("SEASON_START", "not-a-date")

	_, err := LoadConfig(envPath, testLogger())
	assert.Error(t, err)
}
