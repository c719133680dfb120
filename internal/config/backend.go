package config

import (
	"errors"
	"time"
)

// BackendConfig configures the development chat backend.
type BackendConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	APIKeys         []string      `mapstructure:"api_keys"         validate:"min=1,dive,required"`
	ClientName      string        `mapstructure:"client_name"      validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
	Logger          LoggerConfig  `mapstructure:"logger"`
	Gemini          GeminiConfig  `mapstructure:"gemini"`
}

// GeminiConfig selects the Gemini responder. An empty APIKey falls back to
// the echo responder.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	ModelName         string        `mapstructure:"model_name"`
	Temperature       float32       `mapstructure:"temperature"         validate:"min=0,max=2"`
	SystemInstruction string        `mapstructure:"system_instruction"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"min=0"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"         validate:"min=0"`
}

// Enabled reports whether Gemini should answer chats.
func (g GeminiConfig) Enabled() bool {
	return g.APIKey != ""
}

// Validate checks the backend configuration.
func (c *BackendConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Gemini.Enabled() && c.Gemini.ModelName == "" {
		return errors.New("gemini.model_name is required when gemini.api_key is set")
	}
	return nil
}

const (
	DefaultBackendAddr       = ":8000"
	DefaultBackendAPIKey     = "dev-key"
	DefaultBackendClientName = "Example Store"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = 0.7
	DefaultGeminiInstruction = "You are a helpful customer support assistant for %s. Answer briefly and politely."
)

var backendDefaults = map[string]any{
	"addr":             DefaultBackendAddr,
	"api_keys":         []string{DefaultBackendAPIKey},
	"client_name":      DefaultBackendClientName,
	"shutdown_timeout": DefaultShutdownTimeout,

	"logger.level": DefaultLogLevel,
	"logger.json":  false,

	"gemini.api_key":            "",
	"gemini.model_name":         DefaultGeminiModel,
	"gemini.temperature":        DefaultGeminiTemperature,
	"gemini.system_instruction": DefaultGeminiInstruction,
	"gemini.max_retries":        2,
	"gemini.retry_delay":        time.Second,
}
