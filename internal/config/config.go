package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the speech studio
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Gemini speech API configuration.
	// GEMINI_API_KEYS is a comma separated list used to seed an empty key store.
	GeminiAPIKeys []string `envconfig:"GEMINI_API_KEYS"`
	GeminiModel   string   `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash-preview-tts"`
	GeminiBaseURL string   `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiTimeout int      `envconfig:"GEMINI_TIMEOUT" default:"120"` // seconds, per synthesis request

	// Generation configuration
	ChunkSize    int    `envconfig:"CHUNK_SIZE" default:"4000"` // characters per synthesis request
	DefaultVoice string `envconfig:"DEFAULT_VOICE" default:"Fenrir"`
	PreviewText  string `envconfig:"PREVIEW_TEXT" default:"Hello."`

	// Credential store configuration
	KeyStorePath string `envconfig:"KEY_STORE_PATH" default:"data/keys.db"`
	KeyStoreName string `envconfig:"KEY_STORE_NAME" default:"multi_api_keys"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that envconfig cannot express as tags.
// An empty key list is valid: keys can be added at runtime.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.GeminiTimeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must be positive, got %d", c.GeminiTimeout)
	}
	if c.KeyStoreName == "" {
		return fmt.Errorf("KEY_STORE_NAME is required")
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
