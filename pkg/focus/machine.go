package focus

import (
	"fmt"
	"time"
)

// Machine evaluates samples against the transition rules.
// Not goroutine safe; owned by a single evaluation loop.
type Machine struct {
	cfg Config

	state           State
	since           time.Time
	yellowEnteredAt time.Time

	history *History
}

// NewMachine creates a machine in GREEN with no samples seen yet.
func NewMachine(cfg Config) (*Machine, error) {
	if cfg.GreenThreshold < 0 || cfg.GreenThreshold > 100 {
		return nil, fmt.Errorf("%w: green threshold %d out of range 0-100", ErrInvalidConfig, cfg.GreenThreshold)
	}
	if cfg.YellowThreshold < 0 || cfg.YellowThreshold > cfg.GreenThreshold {
		return nil, fmt.Errorf("%w: yellow threshold %d must be in 0-%d", ErrInvalidConfig, cfg.YellowThreshold, cfg.GreenThreshold)
	}
	if cfg.EscalationWindow < 0 {
		return nil, fmt.Errorf("%w: escalation window must not be negative", ErrInvalidConfig)
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultConfig().HistorySize
	}

	return &Machine{
		cfg:     cfg,
		state:   Green,
		history: NewHistory(cfg.HistorySize),
	}, nil
}

// Evaluate applies one sample to the machine and returns the resulting
// transition, or nil if the state did not change.
//
// Scores outside [0,100] return *InvalidScoreError; the sample is discarded
// and the state is untouched.
func (m *Machine) Evaluate(s Sample) (*Transition, error) {
	if s.Score < 0 || s.Score > 100 {
		return nil, &InvalidScoreError{Score: s.Score}
	}

	t := s.CapturedAt
	if t.IsZero() {
		t = time.Now()
	}

	// The first sample anchors the "since" timestamp.
	if m.since.IsZero() {
		m.since = t
	}

	m.history.Push(s)

	prev := m.state
	next := prev

	switch prev {
	case Green:
		if s.Score < m.cfg.GreenThreshold {
			next = Yellow
			m.yellowEnteredAt = t
		}

	case Yellow:
		if s.Score >= m.cfg.GreenThreshold {
			next = Green
		} else if t.Sub(m.yellowEnteredAt) >= m.cfg.EscalationWindow {
			next = Red
		}

	case Red:
		if s.Score >= m.cfg.GreenThreshold {
			next = Green
		}
	}

	if next == prev {
		return nil, nil
	}

	m.state = next
	m.since = t
	if next != Yellow {
		m.yellowEnteredAt = time.Time{}
	}

	return &Transition{From: prev, To: next, At: t, Score: s.Score}, nil
}

// State returns the current attention state.
func (m *Machine) State() State {
	return m.state
}

// Since returns when the current state was entered. Zero until the first
// sample has been evaluated.
func (m *Machine) Since() time.Time {
	return m.since
}

// YellowEnteredAt returns when YELLOW was entered, or zero when the machine
// is not in YELLOW.
func (m *Machine) YellowEnteredAt() time.Time {
	return m.yellowEnteredAt
}

// LastSample returns the most recent accepted sample.
func (m *Machine) LastSample() (Sample, bool) {
	return m.history.Last()
}

// History returns the retained samples, oldest first.
func (m *Machine) History() []Sample {
	return m.history.All()
}

// Config returns the machine's configuration.
func (m *Machine) Config() Config {
	return m.cfg
}
