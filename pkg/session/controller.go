package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wardenhq/go-warden/internal/log"
	"github.com/wardenhq/go-warden/pkg/calibration"
	"github.com/wardenhq/go-warden/pkg/capture"
	"github.com/wardenhq/go-warden/pkg/focus"
	"github.com/wardenhq/go-warden/pkg/vision"
)

// Controller runs the sampling loop. Start and Stop are safe for concurrent
// use; all evaluation happens on a single goroutine so samples are processed
// strictly in capture order.
type Controller struct {
	cfg        Config
	source     capture.Source
	classifier vision.Classifier
	store      *calibration.Store
	trigger    *Trigger
	logger     *slog.Logger

	// OnSnapshot, when set before Start, is invoked on the loop goroutine
	// after every published snapshot. Used to fan out status to websocket
	// clients.
	OnSnapshot func(Snapshot)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	snapMu sync.RWMutex
	snap   Snapshot
}

// NewController wires the loop collaborators. The trigger may be nil to run
// silent (state tracking without responses).
func NewController(cfg Config, src capture.Source, cls vision.Classifier, store *calibration.Store, trig *Trigger) *Controller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.SampleTimeout <= 0 {
		cfg.SampleTimeout = DefaultConfig().SampleTimeout
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = DefaultConfig().ResponseTimeout
	}
	return &Controller{
		cfg:        cfg,
		source:     src,
		classifier: cls,
		store:      store,
		trigger:    trig,
		logger:     log.With("component", "session"),
		snap:       Snapshot{State: focus.Green.String(), History: []focus.Sample{}},
	}
}

// Start launches the sampling loop. It returns calibration.ErrNotCalibrated
// when no baseline exists. Calling Start on a running controller is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	if !c.store.Calibrated() {
		return calibration.ErrNotCalibrated
	}

	machine, err := focus.NewMachine(c.cfg.Machine)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	c.publish(func(s *Snapshot) {
		s.Running = true
		s.Degraded = false
		s.LastError = ""
	})

	go c.run(loopCtx, machine)
	c.logger.Info("session started", "interval", c.cfg.Interval.String())
	return nil
}

// Stop cancels the loop and waits for it to drain. The last snapshot is
// preserved. Stopping a stopped controller is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
	c.logger.Info("session stopped")
}

// Running reports whether the loop is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Status returns a copy of the latest published snapshot.
func (c *Controller) Status() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

func (c *Controller) run(ctx context.Context, machine *focus.Machine) {
	defer func() {
		c.mu.Lock()
		c.running = false
		cancel := c.cancel
		done := c.done
		c.mu.Unlock()
		// Release the derived context even when the loop paused itself.
		cancel()
		c.publish(func(s *Snapshot) { s.Running = false })
		close(done)
	}()

	ticks := c.cfg.Ticks
	if ticks == nil {
		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-ticks:
			if !ok {
				return
			}
			if !c.tick(ctx, machine, now) {
				return
			}
		}
	}
}

// tick runs one sample round. Returning false pauses the loop after an
// exhausted retry budget; the focus state is left as-is.
func (c *Controller) tick(ctx context.Context, machine *focus.Machine, now time.Time) bool {
	sctx, cancel := context.WithTimeout(ctx, c.cfg.SampleTimeout)
	defer cancel()

	frame, err := c.captureFrame(sctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		c.degrade("capture failed", err)
		return false
	}

	ref, err := c.store.Get()
	if err != nil {
		c.degrade("baseline unavailable", err)
		return false
	}

	analysis, err := c.classify(sctx, frame, ref.Description)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		c.degrade("classification failed", err)
		return false
	}

	sample := focus.Sample{
		Score:        analysis.FocusScore,
		Observations: analysis.Observations,
		CapturedAt:   now,
	}
	transition, err := machine.Evaluate(sample)
	if err != nil {
		// Out-of-range score from the classifier. The sample is
		// discarded; the loop keeps going.
		c.logger.Warn("sample rejected", "score", sample.Score, "error", err)
		return true
	}

	var episode *Episode
	clearEpisode := false
	if transition != nil {
		c.logger.Info("state transition",
			"from", transition.From.String(),
			"to", transition.To.String(),
			"score", transition.Score)
		switch {
		case transition.To == focus.Red:
			if c.trigger != nil {
				// The response gets its own deadline; a hung
				// remark or speech backend must not stall
				// sampling or shutdown.
				rctx, rcancel := context.WithTimeout(ctx, c.cfg.ResponseTimeout)
				episode = c.trigger.Fire(rctx, sample.Observations)
				rcancel()
			}
		case transition.From == focus.Red:
			clearEpisode = true
		}
	}

	c.publish(func(s *Snapshot) {
		s.State = machine.State().String()
		s.Since = machine.Since()
		s.LastSample = &sample
		s.History = machine.History()
		s.Degraded = false
		s.LastError = ""
		if episode != nil {
			s.LastEpisode = episode
		}
		if clearEpisode {
			s.LastEpisode = nil
		}
	})
	return true
}

// captureFrame grabs one frame, retrying once on a transient device failure.
func (c *Controller) captureFrame(ctx context.Context) ([]byte, error) {
	frame, err := c.source.CaptureJPEG(ctx)
	if err == nil {
		return frame, nil
	}
	if ctx.Err() != nil || errors.Is(err, capture.ErrClosed) {
		return nil, err
	}
	c.logger.Warn("capture failed, retrying", "error", err)
	return c.source.CaptureJPEG(ctx)
}

// classify scores one frame, retrying once on a retryable provider error.
func (c *Controller) classify(ctx context.Context, frame []byte, baseline string) (vision.Analysis, error) {
	analysis, err := c.classifier.Analyze(ctx, frame, baseline)
	if err == nil {
		return analysis, nil
	}
	var apiErr *vision.APIError
	if ctx.Err() == nil && errors.As(err, &apiErr) && apiErr.IsRetryable() {
		c.logger.Warn("classification failed, retrying", "error", err)
		return c.classifier.Analyze(ctx, frame, baseline)
	}
	return vision.Analysis{}, err
}

func (c *Controller) degrade(msg string, err error) {
	c.logger.Error("sampling paused: "+msg, "error", err)
	c.publish(func(s *Snapshot) {
		s.Degraded = true
		s.LastError = err.Error()
	})
}

func (c *Controller) publish(mut func(*Snapshot)) {
	c.snapMu.Lock()
	mut(&c.snap)
	c.snap.UpdatedAt = time.Now()
	snap := c.snap
	c.snapMu.Unlock()

	if c.OnSnapshot != nil {
		c.OnSnapshot(snap)
	}
}
