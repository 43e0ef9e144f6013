package tts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/wardenhq/go-warden/pkg/tts"
)

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns audio", func(t *testing.T) {
		audio, err := mock.Synthesize(ctx, tts.Request{Text: "Hello world", Voice: "onyx"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(audio.Data) == 0 {
			t.Error("expected audio data")
		}
		if audio.CharCount != 11 {
			t.Errorf("expected 11 chars, got %d", audio.CharCount)
		}
	})

	t.Run("Calls are tracked with voice", func(t *testing.T) {
		calls := mock.Calls()
		if len(calls) != 1 {
			t.Fatalf("expected 1 call, got %d", len(calls))
		}
		if calls[0].Voice != "onyx" {
			t.Errorf("voice = %q, want onyx", calls[0].Voice)
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})
}

func TestChainFallsBack(t *testing.T) {
	failErr := errors.New("boom")
	failing := tts.WithError(failErr)
	working := tts.NewMock()

	chain, err := tts.NewChain(failing, working)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	audio, err := chain.Synthesize(context.Background(), tts.Request{Text: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(audio.Data) == 0 {
		t.Error("expected audio from fallback provider")
	}
	if working.CallCount("Synthesize") != 1 {
		t.Error("fallback provider was not invoked")
	}
}

func TestChainAllFail(t *testing.T) {
	chain, err := tts.NewChain(tts.WithError(errors.New("a")), tts.WithError(errors.New("b")))
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	_, err = chain.Synthesize(context.Background(), tts.Request{Text: "hi"})
	if !errors.Is(err, tts.ErrAllProvidersFailed) {
		t.Errorf("error = %v, want ErrAllProvidersFailed", err)
	}
}

func TestChainRequiresProviders(t *testing.T) {
	if _, err := tts.NewChain(); !errors.Is(err, tts.ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestOpenAIRequiresKey(t *testing.T) {
	if _, err := tts.NewOpenAI(); !errors.Is(err, tts.ErrNoAPIKey) {
		t.Errorf("error = %v, want ErrNoAPIKey", err)
	}
}

func TestElevenLabsRequiresKey(t *testing.T) {
	if _, err := tts.NewElevenLabs(); !errors.Is(err, tts.ErrNoAPIKey) {
		t.Errorf("error = %v, want ErrNoAPIKey", err)
	}
}

func TestAPIErrorRetryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
	}

	for _, c := range cases {
		e := &tts.APIError{StatusCode: c.status, Provider: "test"}
		if got := e.IsRetryable(); got != c.want {
			t.Errorf("status %d: retryable = %v, want %v", c.status, got, c.want)
		}
	}
}
