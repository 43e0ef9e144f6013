package vision

import (
	"log/slog"
	"time"
)

// Config holds classifier configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// BaseURL is the Ollama server URL.
	BaseURL string

	// Model is the multimodal model name (e.g. "llava:7b").
	Model string

	// APIKey authenticates against hosted backends. Unused by Ollama.
	APIKey string

	// Timeout bounds one model call.
	Timeout time.Duration

	// Logger is the structured logger for the classifier.
	Logger *slog.Logger
}

// Option is a functional option for configuring classifiers.
type Option func(*Config)

// WithBaseURL overrides the backend URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the vision model name.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the backend API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTimeout bounds one model call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible defaults for a local Ollama server.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:11434",
		Model:   "llava:7b",
		Timeout: 60 * time.Second,
		Logger:  slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
