package config

import (
	"os"
	"strconv"
	"time"

	"github.com/vinvit-2/exp-ai-account/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Telemetry  TelemetryConfig
	Experiment ExperimentConfig
	Database   DatabaseConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// TelemetryConfig holds the logging endpoint settings.
// URL and Key are both required for logging to be active; when either is
// missing the emitter runs disabled, which is the expected local-dev setup.
type TelemetryConfig struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// ExperimentConfig holds the experiment design parameters.
type ExperimentConfig struct {
	CandidatesFile     string
	Candidates         int
	ShortlistCap       int
	ExpectedMinutes    int
	BiasDelta          int
	AIThreshold        int
	BiasOnlyBorderline bool
}

// DatabaseConfig holds optional event-store settings for the Postgres sink
// and the collector service.
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    loadServerConfig(),
		Telemetry: loadTelemetryConfig(),
		Database:  DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
	}

	expConfig, err := loadExperimentConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load experiment configuration")
	}
	config.Experiment = *expConfig

	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		URL:     os.Getenv("LOG_URL"),
		Key:     os.Getenv("LOG_KEY"),
		Timeout: time.Duration(getEnvIntOrDefault("LOG_TIMEOUT_SECONDS", 6)) * time.Second,
	}
}

func loadExperimentConfig() (*ExperimentConfig, error) {
	candidatesFile := getEnvOrDefault("CANDIDATES_FILE", "candidates.json")
	if candidatesFile == "" {
		return nil, errors.ConfigInvalid("CANDIDATES_FILE cannot be empty")
	}

	cfg := &ExperimentConfig{
		CandidatesFile:     candidatesFile,
		Candidates:         getEnvIntOrDefault("N_CANDIDATES", 12),
		ShortlistCap:       getEnvIntOrDefault("SHORTLIST_CAP", 5),
		ExpectedMinutes:    getEnvIntOrDefault("EXPECTED_MINUTES", 12),
		BiasDelta:          getEnvIntOrDefault("BIAS_DELTA", 6),
		AIThreshold:        getEnvIntOrDefault("AI_THRESHOLD", 70),
		BiasOnlyBorderline: getEnvBoolOrDefault("BIAS_ONLY_ON_BORDERLINE", true),
	}

	if cfg.Candidates <= 0 {
		return nil, errors.ConfigInvalid("N_CANDIDATES must be positive")
	}
	if cfg.ShortlistCap <= 0 || cfg.ShortlistCap > cfg.Candidates {
		return nil, errors.ConfigInvalid("SHORTLIST_CAP must be in [1, N_CANDIDATES]")
	}
	if cfg.AIThreshold < 0 || cfg.AIThreshold > 100 {
		return nil, errors.ConfigInvalid("AI_THRESHOLD must be in [0, 100]")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
