// Package tts provides a unified interface for text-to-speech providers.
//
// Each persona has its own voice, so synthesis takes the voice per request
// rather than fixing it at construction. Two backends are bundled: OpenAI's
// speech API (plain HTTP, MP3 out) and ElevenLabs' streaming WebSocket API
// (PCM out). A Chain composes providers into a fallback sequence, and Mock
// serves tests.
//
// Example usage:
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//	defer provider.Close()
//
//	audio, _ := provider.Synthesize(ctx, tts.Request{
//	    Text:  "Back to work, Dave.",
//	    Voice: "onyx",
//	})
package tts

import (
	"context"
)

// Provider converts text to speakable audio.
type Provider interface {
	// Synthesize converts text to audio, returning the complete buffer.
	Synthesize(ctx context.Context, req Request) (*Audio, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Request is one synthesis job.
type Request struct {
	// Text is the remark to speak.
	Text string

	// Voice is the provider voice ID. Empty means the provider default.
	Voice string
}

// Audio is a complete synthesis result.
type Audio struct {
	// Data contains the raw audio bytes.
	Data []byte

	// MIME is the audio content type (e.g. "audio/mpeg", "audio/wav").
	MIME string

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis round-trip in milliseconds.
	LatencyMs int64
}

// OpenAI voice options.
const (
	VoiceAlloy   = "alloy"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceOnyx    = "onyx"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)
