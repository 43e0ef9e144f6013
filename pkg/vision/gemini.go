package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wardenhq/go-warden/internal/httpc"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// DefaultGeminiModel is a fast multimodal model suited to frequent frame
// scoring.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini implements Classifier against the Gemini generateContent API, for
// setups without a local Ollama server.
type Gemini struct {
	cfg    *Config
	client *http.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini-backed classifier. An API key is required.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = geminiEndpoint
	cfg.Model = DefaultGeminiModel
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, errors.New("vision: gemini requires an API key")
	}

	return &Gemini{
		cfg:    cfg,
		client: httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "vision.gemini", "model", cfg.Model),
	}, nil
}

// geminiRequest is the generateContent payload, limited to the fields the
// classifier needs.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Config   geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Describe summarizes a calibration frame.
func (g *Gemini) Describe(ctx context.Context, frame []byte) (string, error) {
	if len(frame) == 0 {
		return "", ErrEmptyFrame
	}

	reply, err := g.generate(ctx, describePrompt, frame)
	if err != nil {
		return "", err
	}

	desc := strings.TrimSpace(reply)
	if desc == "" {
		return "", fmt.Errorf("%w: empty description", ErrUnparseable)
	}
	return desc, nil
}

// Analyze scores a frame against the baseline description.
func (g *Gemini) Analyze(ctx context.Context, frame []byte, baseline string) (Analysis, error) {
	if len(frame) == 0 {
		return Analysis{}, ErrEmptyFrame
	}
	if baseline == "" {
		return Analysis{}, ErrNoBaseline
	}

	start := time.Now()

	reply, err := g.generate(ctx, fmt.Sprintf(analyzePrompt, baseline), frame)
	if err != nil {
		return Analysis{}, err
	}

	analysis, err := ParseAnalysis(reply)
	if err != nil {
		return Analysis{}, err
	}

	g.logger.Debug("analyzed frame",
		"score", analysis.FocusScore,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return analysis, nil
}

// Health issues a minimal text-only generation to verify key and quota.
func (g *Gemini) Health(ctx context.Context) error {
	_, err := g.generate(ctx, "Reply with OK.", nil)
	return err
}

// generate performs one generateContent call, optionally attaching a frame.
func (g *Gemini) generate(ctx context.Context, prompt string, frame []byte) (string, error) {
	parts := []geminiPart{{Text: prompt}}
	if frame != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MIMEType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(frame),
		}})
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		Config:   geminiGenConfig{Temperature: 0.2, MaxOutputTokens: 500},
	})
	if err != nil {
		return "", fmt.Errorf("vision: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.cfg.BaseURL, g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision: model call: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    truncate(strings.TrimSpace(string(raw)), 200),
		}
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if out.Error.Message != "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: out.Error.Message}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidate set", ErrUnparseable)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// Verify Gemini implements Classifier at compile time.
var _ Classifier = (*Gemini)(nil)
