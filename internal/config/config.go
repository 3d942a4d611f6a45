// Package config loads runtime settings from the environment, reading a .env
// file first when one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Extract ExtractConfig
	Log     LogConfig
	Storage StorageConfig
}

// ServerConfig configures the upload server.
type ServerConfig struct {
	Port               string
	MaxUploadMB        int
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// MaxUploadBytes is the request body ceiling for PDF uploads.
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// ExtractConfig holds the extraction defaults shared by the server and CLI.
type ExtractConfig struct {
	Mode           string
	NameBandPoints float64
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig configures the Cloud Storage client used for gs:// sources.
type StorageConfig struct {
	CredentialsFile string
	Endpoint        string
	Anonymous       bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", 20),
			RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
			RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Extract: ExtractConfig{
			Mode:           strings.ToLower(getEnv("EXTRACT_MODE", "auto")),
			NameBandPoints: getEnvAsFloat("NAME_BAND_POINTS", 80),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Storage: StorageConfig{
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			Endpoint:        getEnv("GCS_ENDPOINT", ""),
			Anonymous:       getEnvAsBool("GCS_ANONYMOUS", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the extractor or server cannot work with.
func (c *Config) Validate() error {
	switch c.Extract.Mode {
	case "auto", "table", "lines":
	default:
		return fmt.Errorf("EXTRACT_MODE must be one of auto, table, lines (got %q)", c.Extract.Mode)
	}
	if c.Extract.NameBandPoints <= 0 {
		return errors.New("NAME_BAND_POINTS must be positive")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	if c.Server.RateLimitPerSecond <= 0 || c.Server.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
