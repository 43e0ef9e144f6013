package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"
	providerElevenLabs  = "elevenlabs"

	// ModelElevenTurbo is the fastest ElevenLabs model.
	ModelElevenTurbo = "eleven_turbo_v2_5"
)

// ElevenLabs implements Provider via the streaming WebSocket API.
// Each Synthesize call opens one stream-input session for the requested
// voice and collects the audio chunks until the final frame.
type ElevenLabs struct {
	config *Config
	logger *slog.Logger
}

// NewElevenLabs creates a new ElevenLabs TTS provider.
func NewElevenLabs(opts ...Option) (*ElevenLabs, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelElevenTurbo
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &ElevenLabs{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.elevenlabs"),
	}, nil
}

// wsMessage is one incoming frame from the stream-input endpoint.
type wsMessage struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Synthesize converts text to MP3 audio over one WebSocket session.
func (e *ElevenLabs) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, WrapError(providerElevenLabs, ErrEmptyText)
	}

	voice := req.Voice
	if voice == "" {
		voice = e.config.DefaultVoice
	}
	if voice == "" {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("no voice configured"))
	}

	start := time.Now()

	base := e.config.BaseURL
	if base == "" {
		base = elevenLabsWSBaseURL
	}
	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s&output_format=mp3_44100_128",
		base, voice, e.config.ModelID)

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, WrapError(providerElevenLabs,
				fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err))
		}
		return nil, WrapError(providerElevenLabs, fmt.Errorf("websocket dial failed: %w", err))
	}
	defer conn.Close()

	// Bound the whole session even when the caller's context carries no
	// deadline, so a silent server cannot block reads forever.
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = start.Add(e.config.Timeout)
	}
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)

	// Begin-of-stream, the text itself, then end-of-stream.
	frames := []map[string]any{
		{
			"text": " ",
			"voice_settings": map[string]any{
				"stability":        0.5,
				"similarity_boost": 0.75,
			},
		},
		{"text": req.Text + " ", "try_trigger_generation": true},
		{"text": ""},
	}
	for _, frame := range frames {
		if err := conn.WriteJSON(frame); err != nil {
			return nil, WrapError(providerElevenLabs, fmt.Errorf("send frame: %w", err))
		}
	}

	var audio bytes.Buffer
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			// A normal close after audio means the server finished
			// without an explicit final frame.
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && audio.Len() > 0 {
				break
			}
			return nil, WrapError(providerElevenLabs, fmt.Errorf("read frame: %w", err))
		}

		if msg.Error != "" {
			return nil, WrapError(providerElevenLabs,
				fmt.Errorf("server error %s: %s", msg.Error, msg.Message))
		}

		if msg.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return nil, WrapError(providerElevenLabs, fmt.Errorf("decode audio: %w", err))
			}
			audio.Write(chunk)
		}

		if msg.IsFinal {
			break
		}
	}

	if audio.Len() == 0 {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("no audio received"))
	}

	latency := time.Since(start).Milliseconds()
	e.logger.Debug("synthesized audio",
		"chars", len(req.Text),
		"bytes", audio.Len(),
		"latency_ms", latency,
		"voice", voice,
	)

	return &Audio{
		Data:      audio.Bytes(),
		MIME:      "audio/mpeg",
		CharCount: len(req.Text),
		LatencyMs: latency,
	}, nil
}

// Health verifies the API key against the voices endpoint.
func (e *ElevenLabs) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", "https://api.elevenlabs.io/v1/voices", nil)
	if err != nil {
		return WrapError(providerElevenLabs, err)
	}
	req.Header.Set("xi-api-key", e.config.APIKey)

	resp, err := (&http.Client{Timeout: e.config.Timeout}).Do(req)
	if err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			Provider:   providerElevenLabs,
		}
	}
	return nil
}

// Close releases resources. Sessions are per-call, so there is nothing to
// tear down.
func (e *ElevenLabs) Close() error {
	return nil
}

// Verify ElevenLabs implements Provider at compile time.
var _ Provider = (*ElevenLabs)(nil)
