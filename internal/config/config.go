// Package config provides environment-sourced configuration for go-warden.
// A .env file in the working directory is loaded if present; real environment
// variables always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the sampling loop and focus thresholds.
const (
	DefaultPort            = "8090"
	DefaultDataDir         = "data"
	DefaultPersonasPath    = "personas.yml"
	DefaultPersona         = "hal"
	DefaultSampleInterval  = 10 * time.Second
	DefaultSampleTimeout   = 60 * time.Second
	DefaultResponseTimeout = 30 * time.Second
	DefaultGreenThreshold  = 50
	DefaultYellowThreshold = 25
	DefaultCooldown        = 0 // disabled
	DefaultOllamaURL       = "http://localhost:11434"
	DefaultVisionModel     = "llava:7b"
	DefaultTextModel       = "llama3.2:3b"
	DefaultCameraDevice    = 0
)

// Config holds the full daemon configuration.
type Config struct {
	// Server
	Port    string
	DataDir string

	// Autostart begins a session on boot when a baseline exists.
	Autostart bool

	// Focus evaluation
	SampleInterval   time.Duration
	SampleTimeout    time.Duration
	ResponseTimeout  time.Duration
	GreenThreshold   int
	YellowThreshold  int
	EscalationWindow time.Duration // zero means one sample interval
	ResponseCooldown time.Duration

	// Camera
	CameraDevice int

	// Models
	OllamaURL     string
	VisionBackend string // "ollama" or "gemini"
	VisionModel   string
	TextModel     string
	GoogleKey     string

	// Persona / speech
	PersonasPath string
	Persona      string
	OpenAIKey    string
	ElevenKey    string
	ElevenVoice  string

	// Logging
	LogLevel string
}

// Load reads configuration from the environment, preceded by an optional
// .env file. Missing values fall back to defaults.
func Load() Config {
	// Ignore a missing .env; only explicit files matter here.
	_ = godotenv.Load()

	cfg := Config{
		Port:             Env("WARDEN_PORT", DefaultPort),
		DataDir:          Env("WARDEN_DATA_DIR", DefaultDataDir),
		SampleInterval:   EnvDuration("WARDEN_SAMPLE_INTERVAL", DefaultSampleInterval),
		SampleTimeout:    EnvDuration("WARDEN_SAMPLE_TIMEOUT", DefaultSampleTimeout),
		ResponseTimeout:  EnvDuration("WARDEN_RESPONSE_TIMEOUT", DefaultResponseTimeout),
		GreenThreshold:   EnvInt("WARDEN_GREEN_THRESHOLD", DefaultGreenThreshold),
		YellowThreshold:  EnvInt("WARDEN_YELLOW_THRESHOLD", DefaultYellowThreshold),
		EscalationWindow: EnvDuration("WARDEN_ESCALATION_WINDOW", 0),
		ResponseCooldown: EnvDuration("WARDEN_RESPONSE_COOLDOWN", DefaultCooldown),
		CameraDevice:     EnvInt("WARDEN_CAMERA_DEVICE", DefaultCameraDevice),
		OllamaURL:        Env("OLLAMA_URL", DefaultOllamaURL),
		VisionBackend:    Env("WARDEN_VISION_BACKEND", "ollama"),
		VisionModel:      Env("WARDEN_VISION_MODEL", DefaultVisionModel),
		TextModel:        Env("WARDEN_TEXT_MODEL", DefaultTextModel),
		GoogleKey:        os.Getenv("GOOGLE_API_KEY"),
		PersonasPath:     Env("WARDEN_PERSONAS", DefaultPersonasPath),
		Persona:          Env("WARDEN_PERSONA", DefaultPersona),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		ElevenKey:        os.Getenv("ELEVENLABS_API_KEY"),
		ElevenVoice:      os.Getenv("ELEVENLABS_VOICE_ID"),
		LogLevel:         Env("WARDEN_LOG_LEVEL", "info"),
		Autostart:        Env("WARDEN_AUTOSTART", "") == "true",
	}

	if cfg.EscalationWindow == 0 {
		// One additional low sample before YELLOW escalates to RED.
		cfg.EscalationWindow = cfg.SampleInterval
	}

	return cfg
}

// Validate checks threshold ordering and interval sanity.
func (c Config) Validate() error {
	if c.GreenThreshold < 0 || c.GreenThreshold > 100 {
		return fmt.Errorf("config: green threshold %d out of range 0-100", c.GreenThreshold)
	}
	if c.YellowThreshold < 0 || c.YellowThreshold > c.GreenThreshold {
		return fmt.Errorf("config: yellow threshold %d must be in 0-%d", c.YellowThreshold, c.GreenThreshold)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("config: sample interval must be positive, got %v", c.SampleInterval)
	}
	if c.SampleTimeout <= 0 {
		return fmt.Errorf("config: sample timeout must be positive, got %v", c.SampleTimeout)
	}
	if c.ResponseTimeout <= 0 {
		return fmt.Errorf("config: response timeout must be positive, got %v", c.ResponseTimeout)
	}
	if c.VisionBackend != "ollama" && c.VisionBackend != "gemini" {
		return fmt.Errorf("config: unknown vision backend %q", c.VisionBackend)
	}
	return nil
}

// Env returns the named environment variable or the fallback.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvInt returns the named environment variable parsed as an int.
// Unset or malformed values fall back.
func EnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// EnvDuration returns the named environment variable parsed as a duration.
// Plain integers are treated as seconds, so WARDEN_SAMPLE_INTERVAL=10 and
// WARDEN_SAMPLE_INTERVAL=10s are equivalent.
func EnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
