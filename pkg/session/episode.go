package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/go-warden/internal/log"
	"github.com/wardenhq/go-warden/pkg/persona"
	"github.com/wardenhq/go-warden/pkg/tts"
)

// EpisodeStatus records the delivery outcome of a response episode.
type EpisodeStatus string

const (
	EpisodeDelivered EpisodeStatus = "delivered"
	EpisodeFailed    EpisodeStatus = "failed"
)

// Episode is one persona response to a RED transition. At most one episode
// exists per continuous RED state; a failed episode is not retried until the
// state leaves RED and re-enters it.
type Episode struct {
	ID          string        `json:"id"`
	Persona     string        `json:"persona"`
	Text        string        `json:"text"`
	Status      EpisodeStatus `json:"status"`
	Error       string        `json:"error,omitempty"`
	TriggeredAt time.Time     `json:"triggered_at"`

	// Audio is the synthesized speech, kept out of JSON payloads.
	Audio     []byte `json:"-"`
	AudioMIME string `json:"audio_mime,omitempty"`
}

// Trigger produces response episodes. Fire is driven solely by the
// controller loop; persona selection is safe for concurrent use so the web
// surface can switch personas while a session runs.
type Trigger struct {
	registry  *persona.Registry
	generator persona.Generator
	speech    tts.Provider
	cooldown  time.Duration
	logger    *slog.Logger

	mu        sync.RWMutex
	personaID string

	lastFired time.Time
}

// NewTrigger builds a trigger. The speech provider may be nil, in which case
// episodes carry text only. An empty personaID selects the registry default.
func NewTrigger(registry *persona.Registry, personaID string, gen persona.Generator, speech tts.Provider, cooldown time.Duration) *Trigger {
	return &Trigger{
		registry:  registry,
		personaID: personaID,
		generator: gen,
		speech:    speech,
		cooldown:  cooldown,
		logger:    log.With("component", "trigger"),
	}
}

// SetPersona switches the active persona for subsequent episodes.
func (t *Trigger) SetPersona(id string) error {
	if _, err := t.registry.Get(id); err != nil {
		return err
	}
	t.mu.Lock()
	t.personaID = id
	t.mu.Unlock()
	return nil
}

// Persona returns the active persona.
func (t *Trigger) Persona() persona.Persona {
	t.mu.RLock()
	id := t.personaID
	t.mu.RUnlock()

	if id == "" {
		return t.registry.Default()
	}
	p, err := t.registry.Get(id)
	if err != nil {
		return t.registry.Default()
	}
	return p
}

// Fire produces the episode for a fresh RED entry. It returns nil when the
// cooldown window suppresses the response. Failures never propagate: they are
// recorded on the episode so the sampling loop keeps running.
func (t *Trigger) Fire(ctx context.Context, observations string) *Episode {
	now := time.Now()
	if t.cooldown > 0 && !t.lastFired.IsZero() && now.Sub(t.lastFired) < t.cooldown {
		t.logger.Debug("response suppressed by cooldown",
			"since_last", now.Sub(t.lastFired).String())
		return nil
	}

	p := t.Persona()
	ep := &Episode{
		ID:          uuid.NewString(),
		Persona:     p.ID,
		TriggeredAt: now,
	}

	text, err := t.generator.Remark(ctx, p, observations)
	if err != nil {
		t.logger.Warn("remark generation failed", "persona", p.ID, "error", err)
		ep.Status = EpisodeFailed
		ep.Error = err.Error()
		t.lastFired = now
		return ep
	}
	ep.Text = text

	if t.speech != nil {
		audio, err := t.speech.Synthesize(ctx, tts.Request{Text: text, Voice: p.Voice})
		if err != nil {
			t.logger.Warn("speech synthesis failed", "persona", p.ID, "error", err)
			ep.Status = EpisodeFailed
			ep.Error = err.Error()
			t.lastFired = now
			return ep
		}
		ep.Audio = audio.Data
		ep.AudioMIME = audio.MIME
	}

	ep.Status = EpisodeDelivered
	t.lastFired = now
	t.logger.Info("response delivered", "persona", p.ID, "episode", ep.ID)
	return ep
}
