package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wardenhq/go-warden/internal/httpc"
)

// Ollama implements Classifier against an Ollama server's generate API.
type Ollama struct {
	cfg    *Config
	client *http.Client
	logger *slog.Logger
}

// NewOllama creates an Ollama-backed classifier.
func NewOllama(opts ...Option) *Ollama {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Ollama{
		cfg:    cfg,
		client: httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "vision.ollama", "model", cfg.Model),
	}
}

// generateRequest is the Ollama /api/generate payload.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

// generateResponse is the non-streaming Ollama reply.
type generateResponse struct {
	Response string `json:"response"`
}

// Describe summarizes a calibration frame.
func (o *Ollama) Describe(ctx context.Context, frame []byte) (string, error) {
	if len(frame) == 0 {
		return "", ErrEmptyFrame
	}

	reply, err := o.generate(ctx, describePrompt, frame)
	if err != nil {
		return "", err
	}

	desc := strings.TrimSpace(reply)
	if desc == "" {
		return "", fmt.Errorf("%w: empty description", ErrUnparseable)
	}

	o.logger.Debug("described baseline", "chars", len(desc))
	return desc, nil
}

// Analyze scores a frame against the baseline description.
func (o *Ollama) Analyze(ctx context.Context, frame []byte, baseline string) (Analysis, error) {
	if len(frame) == 0 {
		return Analysis{}, ErrEmptyFrame
	}
	if baseline == "" {
		return Analysis{}, ErrNoBaseline
	}

	start := time.Now()

	reply, err := o.generate(ctx, fmt.Sprintf(analyzePrompt, baseline), frame)
	if err != nil {
		return Analysis{}, err
	}

	analysis, err := ParseAnalysis(reply)
	if err != nil {
		return Analysis{}, err
	}

	o.logger.Debug("analyzed frame",
		"score", analysis.FocusScore,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return analysis, nil
}

// Health checks that the Ollama server responds.
func (o *Ollama) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", o.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("vision: create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("vision: health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.parseError(resp)
	}
	return nil
}

// generate performs one non-streaming model call with an attached image.
func (o *Ollama) generate(ctx context.Context, prompt string, frame []byte) (string, error) {
	payload := generateRequest{
		Model:  o.cfg.Model,
		Prompt: prompt,
		Stream: false,
	}
	if frame != nil {
		payload.Images = []string{base64.StdEncoding.EncodeToString(frame)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("vision: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision: model call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", o.parseError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	return out.Response, nil
}

// parseError converts a non-200 response into an APIError.
func (o *Ollama) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

// Verify Ollama implements Classifier at compile time.
var _ Classifier = (*Ollama)(nil)
