package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	JWTSecret string `env:"JWT_SECRET,required"`

	// Model settings
	GeminiAPIKey string `env:"GEMINI_KEY"`
	GCPProject   string `env:"GCP_PROJECT"`
	GCPLocation  string `env:"GCP_LOCATION" envDefault:"us-central1"`
	ModelName    string `env:"MODEL_NAME" envDefault:"gemini-2.5-flash"`
	UseMockModel bool   `env:"USE_MOCK_MODEL"`

	// Storage: "memory" or "firestore"
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`

	// Retry policy for backend-to-model calls.
	ModelMaxAttempts int `env:"MODEL_MAX_ATTEMPTS" envDefault:"3"`
}

// Load reads all env vars and builds the config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field requirements the env tags cannot express.
func (c *Config) Validate() error {
	if c.StorageBackend != "memory" && c.StorageBackend != "firestore" {
		return fmt.Errorf("STORAGE_BACKEND must be \"memory\" or \"firestore\", got %q", c.StorageBackend)
	}
	if c.StorageBackend == "firestore" && c.GCPProject == "" {
		return fmt.Errorf("GCP_PROJECT is required for the firestore storage backend")
	}
	if !c.UseMockModel && c.GeminiAPIKey == "" && c.GCPProject == "" {
		return fmt.Errorf("GEMINI_KEY or GCP_PROJECT is required unless USE_MOCK_MODEL is set")
	}
	if c.ModelMaxAttempts <= 0 {
		return fmt.Errorf("MODEL_MAX_ATTEMPTS must be > 0")
	}
	return nil
}
