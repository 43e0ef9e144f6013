package persona

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wardenhq/go-warden/internal/httpc"
)

// OllamaConfig configures the Ollama remark generator.
type OllamaConfig struct {
	// BaseURL is the Ollama server URL.
	BaseURL string

	// Model is the text model name (e.g. "llama3.2:3b").
	Model string

	// Timeout bounds one generation call.
	Timeout time.Duration

	// UseFallback makes Remark return the persona's canned line instead
	// of an error when the model call fails.
	UseFallback bool

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DefaultOllamaConfig returns sensible defaults for a local server.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL: "http://localhost:11434",
		Model:   "llama3.2:3b",
		Timeout: 30 * time.Second,
		Logger:  slog.Default(),
	}
}

// Ollama implements Generator against an Ollama text model.
type Ollama struct {
	cfg    OllamaConfig
	client *http.Client
	logger *slog.Logger
}

// NewOllama creates an Ollama-backed remark generator.
func NewOllama(cfg OllamaConfig) *Ollama {
	def := DefaultOllamaConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}

	return &Ollama{
		cfg:    cfg,
		client: httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "persona.ollama", "model", cfg.Model),
	}
}

// Remark generates one short in-character reminder.
func (o *Ollama) Remark(ctx context.Context, p Persona, observations string) (string, error) {
	if observations == "" {
		observations = "The user is not doing their work."
	}

	prompt := p.Prompt + fmt.Sprintf(remarkPrompt, observations)

	text, err := o.generate(ctx, prompt)
	if err != nil {
		if o.cfg.UseFallback && p.Fallback != "" {
			o.logger.Warn("generation failed, using fallback line", "persona", p.ID, "error", err)
			return p.Fallback, nil
		}
		return "", err
	}

	text = TrimSentences(text, 2)
	if text == "" {
		if o.cfg.UseFallback && p.Fallback != "" {
			return p.Fallback, nil
		}
		return "", ErrEmptyRemark
	}

	o.logger.Info("generated remark", "persona", p.ID, "chars", len(text))
	return text, nil
}

// generate performs one non-streaming text completion.
func (o *Ollama) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  o.cfg.Model,
		"prompt": prompt,
		"stream": false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("persona: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("persona: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("persona: model call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("persona: backend error %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("persona: decode response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}

// Verify Ollama implements Generator at compile time.
var _ Generator = (*Ollama)(nil)
