package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Extract ExtractConfig
	LLM     LLMConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr          string
	MaxFileSize   int64
	MaxBatchFiles int
	TempDir       string
	ShutdownGrace time.Duration
}

// StoreConfig holds result-store configuration
type StoreConfig struct {
	Path string
}

// ExtractConfig holds extraction pipeline configuration
type ExtractConfig struct {
	Workers         int
	StrategyTimeout time.Duration
	OCRBinary       string
	RasterBinary    string
	OCRLanguage     string
	OCRDPHint       int
}

// LLMConfig holds text-generation configuration
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	MaxAttempts int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          getEnv("HTTP_ADDR", ":8080"),
			MaxFileSize:   getEnvAsInt64("MAX_FILE_SIZE", 50<<20),
			MaxBatchFiles: getEnvAsInt("MAX_BATCH_FILES", 10),
			TempDir:       getEnv("TEMP_DIR", os.TempDir()),
			ShutdownGrace: getEnvAsDuration("SHUTDOWN_GRACE", 10*time.Second),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "./analyses.db"),
		},
		Extract: ExtractConfig{
			Workers:         getEnvAsInt("EXTRACT_WORKERS", 4),
			StrategyTimeout: getEnvAsDuration("STRATEGY_TIMEOUT", 60*time.Second),
			OCRBinary:       getEnv("TESSERACT_BIN", "tesseract"),
			RasterBinary:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			OCRLanguage:     getEnv("OCR_LANGUAGE", "spa"),
			OCRDPHint:       getEnvAsInt("OCR_DPI", 300),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.anthropic.com/v1"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "claude-3-haiku-20240307"),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 4000),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
			MaxAttempts: getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError(CodeConfigError, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfigError, "LLM_API_KEY is required", ErrInvalidInput)
	}
	if c.Store.Path == "" {
		return NewAppError(CodeConfigError, "STORE_PATH is required", ErrInvalidInput)
	}
	return nil
}
