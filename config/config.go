// Package config loads server configuration from the environment, honoring a
// local .env file when one is present.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Upload     UploadConfig
	Processing ProcessingConfig
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Port        int
	CORSOrigins []string
	LogLevel    string
}

// StorageConfig holds the database and rules file locations. An empty
// RulesPath means the shipped default rules; a zero RetentionDays keeps
// batches forever.
type StorageConfig struct {
	DBPath        string
	RulesPath     string
	RetentionDays int
}

// UploadConfig bounds the upload endpoint: request size, re-upload cache
// lifetime and the per-client rate limit.
type UploadConfig struct {
	MaxBytes  int64
	CacheTTL  time.Duration
	RateRPS   float64
	RateBurst int
}

// ProcessingConfig holds engine fan-out settings.
type ProcessingConfig struct {
	Workers int
}

func Load() (*Config, error) {
	// A missing .env file is not an error; the environment alone is enough.
	_ = godotenv.Load()

	config := &Config{}

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	config.Server = ServerConfig{
		Port:        port,
		CORSOrigins: getEnvSlice("CORS_ORIGINS", "*"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	retentionDays, err := getEnvInt("RETENTION_DAYS", 0)
	if err != nil {
		return nil, err
	}
	config.Storage = StorageConfig{
		DBPath:        getEnv("DB_PATH", "leave.db"),
		RulesPath:     getEnv("RULES_PATH", ""),
		RetentionDays: retentionDays,
	}

	maxMB, err := getEnvInt("UPLOAD_MAX_MB", 16)
	if err != nil {
		return nil, err
	}
	cacheTTLMin, err := getEnvInt("CACHE_TTL_MIN", 15)
	if err != nil {
		return nil, err
	}
	rateRPS, err := getEnvFloat("RATE_RPS", 5)
	if err != nil {
		return nil, err
	}
	rateBurst, err := getEnvInt("RATE_BURST", 10)
	if err != nil {
		return nil, err
	}
	config.Upload = UploadConfig{
		MaxBytes:  int64(maxMB) << 20,
		CacheTTL:  time.Duration(cacheTTLMin) * time.Minute,
		RateRPS:   rateRPS,
		RateBurst: rateBurst,
	}

	workers, err := getEnvInt("WORKERS", 0)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	config.Processing = ProcessingConfig{Workers: workers}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_MB must be positive")
	}
	if c.Upload.RateRPS <= 0 {
		return fmt.Errorf("RATE_RPS must be positive")
	}
	if c.Upload.RateBurst < 1 {
		return fmt.Errorf("RATE_BURST must be at least 1")
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, err := strconv.ParseFloat(getEnv(key, strconv.FormatFloat(fallback, 'f', -1, 64)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvSlice(key, fallback string) []string {
	var result []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
