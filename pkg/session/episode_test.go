package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wardenhq/go-warden/pkg/persona"
	"github.com/wardenhq/go-warden/pkg/session"
	"github.com/wardenhq/go-warden/pkg/tts"
)

func TestTriggerDeliversEpisode(t *testing.T) {
	gen := &persona.Mock{
		RemarkFunc: func(ctx context.Context, p persona.Persona, observations string) (string, error) {
			return "Eyes on the prize.", nil
		},
	}
	speech := tts.NewMock()
	trig := session.NewTrigger(persona.Builtins(), "drill_sergeant", gen, speech, 0)

	ep := trig.Fire(context.Background(), "person looking at phone")
	if ep == nil {
		t.Fatal("Fire returned nil episode")
	}
	if ep.ID == "" {
		t.Fatal("episode has no ID")
	}
	if ep.Persona != "drill_sergeant" {
		t.Fatalf("persona = %q, want drill_sergeant", ep.Persona)
	}
	if ep.Status != session.EpisodeDelivered {
		t.Fatalf("status = %s, want delivered", ep.Status)
	}
	if ep.Text != "Eyes on the prize." {
		t.Fatalf("text = %q", ep.Text)
	}
	if len(ep.Audio) == 0 || ep.AudioMIME == "" {
		t.Fatal("episode missing audio")
	}

	calls := speech.Calls()
	if len(calls) != 1 || calls[0].Voice != tts.VoiceEcho {
		t.Fatalf("speech calls = %+v, want one call with drill sergeant voice", calls)
	}
}

func TestTriggerWithoutSpeech(t *testing.T) {
	trig := session.NewTrigger(persona.Builtins(), "", persona.NewMock(), nil, 0)

	ep := trig.Fire(context.Background(), "")
	if ep == nil || ep.Status != session.EpisodeDelivered {
		t.Fatalf("episode = %+v, want delivered text-only episode", ep)
	}
	if len(ep.Audio) != 0 {
		t.Fatal("text-only trigger should not produce audio")
	}
}

func TestTriggerRemarkFailure(t *testing.T) {
	gen := &persona.Mock{
		RemarkFunc: func(ctx context.Context, p persona.Persona, observations string) (string, error) {
			return "", errors.New("model offline")
		},
	}
	speech := tts.NewMock()
	trig := session.NewTrigger(persona.Builtins(), "", gen, speech, 0)

	ep := trig.Fire(context.Background(), "")
	if ep == nil {
		t.Fatal("a failed remark still produces an episode record")
	}
	if ep.Status != session.EpisodeFailed {
		t.Fatalf("status = %s, want failed", ep.Status)
	}
	if ep.Error == "" {
		t.Fatal("failed episode should carry the error")
	}
	if got := speech.CallCount("Synthesize"); got != 0 {
		t.Fatalf("synthesize calls after remark failure = %d, want 0", got)
	}
}

func TestTriggerSpeechFailure(t *testing.T) {
	trig := session.NewTrigger(persona.Builtins(), "", persona.NewMock(), tts.WithError(tts.ErrProviderUnavailable), 0)

	ep := trig.Fire(context.Background(), "")
	if ep == nil || ep.Status != session.EpisodeFailed {
		t.Fatalf("episode = %+v, want failed", ep)
	}
	if ep.Text == "" {
		t.Fatal("failed synthesis should keep the generated text")
	}
}

func TestTriggerCooldownSuppresses(t *testing.T) {
	trig := session.NewTrigger(persona.Builtins(), "", persona.NewMock(), nil, time.Hour)

	if ep := trig.Fire(context.Background(), ""); ep == nil {
		t.Fatal("first fire should produce an episode")
	}
	if ep := trig.Fire(context.Background(), ""); ep != nil {
		t.Fatalf("fire within cooldown produced %+v, want nil", ep)
	}
}

// Persona switches arrive from web handler goroutines while the controller
// loop fires episodes; both paths must be safe together. Run with -race.
func TestTriggerConcurrentPersonaSwitch(t *testing.T) {
	trig := session.NewTrigger(persona.Builtins(), "", persona.NewMock(), nil, 0)
	ids := []string{"hal", "sarcastic_friend", "motivational_coach", "drill_sergeant"}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if err := trig.SetPersona(ids[i%len(ids)]); err != nil {
				t.Errorf("SetPersona: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if ep := trig.Fire(context.Background(), "looking away"); ep == nil {
				t.Error("Fire returned nil without a cooldown")
				return
			}
		}
	}()
	wg.Wait()

	if _, err := persona.Builtins().Get(trig.Persona().ID); err != nil {
		t.Fatalf("active persona %q not registered", trig.Persona().ID)
	}
}

func TestTriggerSetPersona(t *testing.T) {
	trig := session.NewTrigger(persona.Builtins(), "", persona.NewMock(), nil, 0)

	if trig.Persona().ID != persona.Builtins().Default().ID {
		t.Fatal("empty persona should fall back to registry default")
	}
	if err := trig.SetPersona("motivational_coach"); err != nil {
		t.Fatalf("SetPersona: %v", err)
	}
	if trig.Persona().ID != "motivational_coach" {
		t.Fatalf("active persona = %q", trig.Persona().ID)
	}
	if err := trig.SetPersona("nobody"); !errors.Is(err, persona.ErrUnknownPersona) {
		t.Fatalf("SetPersona unknown: got %v, want ErrUnknownPersona", err)
	}
	if trig.Persona().ID != "motivational_coach" {
		t.Fatal("failed SetPersona must not change the active persona")
	}
}
