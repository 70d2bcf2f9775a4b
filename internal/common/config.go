package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Pipeline PipelineConfig
	Semantic SemanticConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN string
}

// PipelineConfig holds extraction-pipeline configuration
type PipelineConfig struct {
	EnableStructural  bool
	EnableSemantic    bool
	MinExtractionRate float64
	FallbackCurrency  string
	FallbackOnly      bool
}

// SemanticConfig holds semantic-backend configuration
type SemanticConfig struct {
	Backend     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN: getEnv("DB_URL", ""),
		},
		Pipeline: PipelineConfig{
			EnableStructural:  getEnvAsBool("ENABLE_STRUCTURAL", true),
			EnableSemantic:    getEnvAsBool("ENABLE_SEMANTIC", true),
			MinExtractionRate: getEnvAsFloat64("MIN_EXTRACTION_RATE", 0.6),
			FallbackCurrency:  getEnv("FALLBACK_CURRENCY", "USD"),
			FallbackOnly:      getEnvAsBool("SEMANTIC_FALLBACK_ONLY", false),
		},
		Semantic: SemanticConfig{
			Backend:     getEnv("SEMANTIC_BACKEND", "openai"),
			APIKey:      getEnv("SEMANTIC_API_KEY", ""),
			Model:       getEnv("SEMANTIC_MODEL", ""),
			Temperature: getEnvAsFloat32("SEMANTIC_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("SEMANTIC_TIMEOUT", 30*time.Second),
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("FALLBACK_CURRENCY", c.Pipeline.FallbackCurrency, CurrencyCode)
	if c.Pipeline.MinExtractionRate < 0 || c.Pipeline.MinExtractionRate > 1 {
		return NewAppError("CONFIG_ERROR", "MIN_EXTRACTION_RATE must be in [0,1]", ErrInvalidInput)
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrValidation)
	}
	return nil
}
