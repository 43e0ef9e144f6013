// Package focus implements the attention state machine at the heart of
// go-warden.
//
// The machine consumes focus scores (0-100, higher = more focused) produced by
// the vision classifier and maintains one of three states:
//
//	GREEN  - focused
//	YELLOW - tentatively distracted, awaiting confirmation
//	RED    - confirmed distracted, a response is due
//
// Transitions apply hysteresis: recovery is inclusive (score >= green
// threshold) while degradation is exclusive (score < green threshold), so a
// score sitting exactly on the boundary never oscillates. A YELLOW state only
// escalates to RED after the configured escalation window has elapsed, giving
// the user a grace period of at least one more sample to recover.
//
// The machine is deliberately not goroutine safe. It is owned by a single
// evaluation loop (see pkg/session); observers read published snapshots, never
// the machine itself.
package focus

import (
	"time"
)

// State is the current attention level.
type State int

const (
	// Green indicates the user matches the focused baseline.
	Green State = iota
	// Yellow indicates tentative distraction within the grace window.
	Yellow
	// Red indicates confirmed distraction; a response is due.
	Red
)

// String returns the canonical upper-case state name.
func (s State) String() string {
	switch s {
	case Green:
		return "GREEN"
	case Yellow:
		return "YELLOW"
	case Red:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// Band classifies a raw score against the configured thresholds without any
// hysteresis. Observers use it to color individual history entries; the
// machine's transition rules do not depend on it.
type Band int

const (
	BandGreen Band = iota
	BandYellow
	BandRed
)

// String returns the canonical band name.
func (b Band) String() string {
	switch b {
	case BandGreen:
		return "GREEN"
	case BandYellow:
		return "YELLOW"
	default:
		return "RED"
	}
}

// Sample is one classified observation of the user.
type Sample struct {
	// Score is the focus score in [0,100].
	Score int `json:"score"`

	// Observations is the classifier's short free-text reasoning.
	Observations string `json:"observations,omitempty"`

	// CapturedAt is when the frame was captured.
	CapturedAt time.Time `json:"captured_at"`

	// FrameRef is an opaque handle to the raw frame (e.g. a file path).
	// May be empty; the machine never dereferences it.
	FrameRef string `json:"frame_ref,omitempty"`
}

// Transition records a state change produced by one sample.
type Transition struct {
	From  State     `json:"from"`
	To    State     `json:"to"`
	At    time.Time `json:"at"`
	Score int       `json:"score"`
}

// Config holds the machine's thresholds and timing.
type Config struct {
	// GreenThreshold is the score at or above which the user counts as
	// focused. Scores below it degrade the state.
	GreenThreshold int

	// YellowThreshold separates the YELLOW and RED bands for observers.
	// Must not exceed GreenThreshold.
	YellowThreshold int

	// EscalationWindow is how long YELLOW must persist before it becomes
	// RED. With periodic sampling, one sample interval means exactly one
	// additional low sample confirms the distraction.
	EscalationWindow time.Duration

	// HistorySize bounds the retained sample history.
	HistorySize int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		GreenThreshold:   50,
		YellowThreshold:  25,
		EscalationWindow: 10 * time.Second,
		HistorySize:      30,
	}
}

// Band returns the band a score falls in under this config.
func (c Config) Band(score int) Band {
	switch {
	case score >= c.GreenThreshold:
		return BandGreen
	case score >= c.YellowThreshold:
		return BandYellow
	default:
		return BandRed
	}
}
