package vision_test

import (
	"errors"
	"testing"

	"github.com/wardenhq/go-warden/pkg/vision"
)

func TestParseAnalysisJSON(t *testing.T) {
	a, err := vision.ParseAnalysis(`{"focus_score": 72, "observations": "at desk, slight slouch"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.FocusScore != 72 {
		t.Errorf("score = %d, want 72", a.FocusScore)
	}
	if a.Observations != "at desk, slight slouch" {
		t.Errorf("observations = %q", a.Observations)
	}
}

func TestParseAnalysisJSONEmbeddedInProse(t *testing.T) {
	reply := `Sure! Here is my assessment:
{"focus_score": 31, "observations": "looking at phone"}
Hope that helps.`

	a, err := vision.ParseAnalysis(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.FocusScore != 31 {
		t.Errorf("score = %d, want 31", a.FocusScore)
	}
}

func TestParseAnalysisFloatScore(t *testing.T) {
	a, err := vision.ParseAnalysis(`{"focus_score": 88.5, "observations": "focused"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.FocusScore != 88 {
		t.Errorf("score = %d, want 88", a.FocusScore)
	}
}

func TestParseAnalysisBareNumberFallback(t *testing.T) {
	a, err := vision.ParseAnalysis("I would rate this person 65 out of 100, they seem mostly on task.")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.FocusScore != 65 {
		t.Errorf("score = %d, want 65", a.FocusScore)
	}
	if a.Observations == "" {
		t.Error("expected reply text carried as observations")
	}
}

func TestParseAnalysisClampsScore(t *testing.T) {
	a, err := vision.ParseAnalysis(`{"focus_score": 250, "observations": "confused model"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.FocusScore != 100 {
		t.Errorf("score = %d, want clamped 100", a.FocusScore)
	}
}

func TestParseAnalysisUnparseable(t *testing.T) {
	for _, reply := range []string{"", "   ", "the person seems quite focused overall"} {
		_, err := vision.ParseAnalysis(reply)
		if !errors.Is(err, vision.ErrUnparseable) {
			t.Errorf("reply %q: error = %v, want ErrUnparseable", reply, err)
		}
	}
}

func TestParseAnalysisMissingObservations(t *testing.T) {
	a, err := vision.ParseAnalysis(`{"focus_score": 40}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Observations == "" {
		t.Error("expected placeholder observations")
	}
}
