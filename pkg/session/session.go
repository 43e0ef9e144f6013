// Package session owns the sampling loop that drives go-warden.
//
// The Controller runs one periodic loop: capture a frame, classify it against
// the calibration baseline, feed the score to the focus state machine, and on
// a RED transition fire the response trigger (persona remark + speech). All
// state mutation happens on the loop goroutine; observers read immutable
// published snapshots.
package session

import (
	"time"

	"github.com/wardenhq/go-warden/pkg/focus"
)

// Snapshot is the immutable view published to observers after every tick.
type Snapshot struct {
	// Running reports whether the sampling loop is active.
	Running bool `json:"running"`

	// State is the current attention state name (GREEN/YELLOW/RED).
	State string `json:"state"`

	// Since is when the current state was entered. Zero before the
	// first sample.
	Since time.Time `json:"since,omitzero"`

	// LastSample is the most recent accepted sample.
	LastSample *focus.Sample `json:"last_sample,omitempty"`

	// History holds recent samples, oldest first.
	History []focus.Sample `json:"history"`

	// LastEpisode is the response episode for the current RED state.
	// Cleared the moment the state leaves RED.
	LastEpisode *Episode `json:"last_episode,omitempty"`

	// Degraded is set when sampling has paused after repeated capture or
	// classification failures. State reflects the last good value.
	Degraded bool `json:"degraded"`

	// LastError carries the failure that degraded the loop.
	LastError string `json:"last_error,omitempty"`

	// UpdatedAt is when this snapshot was published.
	UpdatedAt time.Time `json:"updated_at"`
}

// Config holds the controller's loop parameters.
type Config struct {
	// Interval is the sampling period.
	Interval time.Duration

	// SampleTimeout bounds one capture+classify round trip.
	SampleTimeout time.Duration

	// ResponseTimeout bounds one remark+synthesis round trip on a RED
	// entry, so a hung speech backend cannot stall the sampling loop.
	ResponseTimeout time.Duration

	// Machine configures the focus state machine.
	Machine focus.Config

	// Ticks overrides the internal ticker when non-nil. Tests drive the
	// loop tick-by-tick through this channel; production leaves it nil.
	Ticks <-chan time.Time
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Interval:        10 * time.Second,
		SampleTimeout:   60 * time.Second,
		ResponseTimeout: 30 * time.Second,
		Machine:         focus.DefaultConfig(),
	}
}
