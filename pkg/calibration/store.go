// Package calibration holds the "focused" baseline the vision classifier
// scores against. The baseline is set once by the user, persisted to local
// disk so a restart does not require recalibrating, and replaced atomically
// on recalibration.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotCalibrated is returned when no baseline has been set.
var ErrNotCalibrated = errors.New("calibration: no baseline set")

const (
	imageFile = "baseline.jpg"
	metaFile  = "baseline.json"
)

// Reference describes the stored baseline.
type Reference struct {
	// Description is the vision model's summary of the focused pose.
	Description string `json:"description"`

	// CreatedAt is when the baseline was captured.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists the calibration baseline under a data directory.
// Safe for concurrent use.
type Store struct {
	dir    string
	logger *slog.Logger

	mu  sync.RWMutex
	ref *Reference
}

// NewStore creates a store rooted at dir. Call Load to restore a previously
// persisted baseline.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		logger: slog.Default().With("component", "calibration"),
	}
}

// Load restores a persisted baseline if one exists. A missing baseline is
// not an error; the store simply reports not calibrated.
func (s *Store) Load() error {
	data, err := os.ReadFile(filepath.Join(s.dir, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("calibration: read metadata: %w", err)
	}

	var ref Reference
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("calibration: parse metadata: %w", err)
	}

	if _, err := os.Stat(filepath.Join(s.dir, imageFile)); err != nil {
		return fmt.Errorf("calibration: baseline image missing: %w", err)
	}

	s.mu.Lock()
	s.ref = &ref
	s.mu.Unlock()

	s.logger.Info("restored calibration baseline", "created_at", ref.CreatedAt)
	return nil
}

// Set replaces the baseline atomically: image and metadata are written to
// temp files and renamed into place before the in-memory reference flips.
func (s *Store) Set(image []byte, description string) (Reference, error) {
	if len(image) == 0 {
		return Reference{}, errors.New("calibration: empty baseline image")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Reference{}, fmt.Errorf("calibration: create data dir: %w", err)
	}

	ref := Reference{
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	meta, err := json.Marshal(ref)
	if err != nil {
		return Reference{}, fmt.Errorf("calibration: marshal metadata: %w", err)
	}

	if err := writeAtomic(filepath.Join(s.dir, imageFile), image); err != nil {
		return Reference{}, err
	}
	if err := writeAtomic(filepath.Join(s.dir, metaFile), meta); err != nil {
		return Reference{}, err
	}

	s.mu.Lock()
	s.ref = &ref
	s.mu.Unlock()

	s.logger.Info("calibration baseline replaced", "bytes", len(image))
	return ref, nil
}

// Get returns the current baseline reference, or ErrNotCalibrated.
func (s *Store) Get() (Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ref == nil {
		return Reference{}, ErrNotCalibrated
	}
	return *s.ref, nil
}

// Image returns the persisted baseline image bytes.
func (s *Store) Image() ([]byte, error) {
	if _, err := s.Get(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, imageFile))
	if err != nil {
		return nil, fmt.Errorf("calibration: read baseline image: %w", err)
	}
	return data, nil
}

// Calibrated reports whether a baseline is available.
func (s *Store) Calibrated() bool {
	_, err := s.Get()
	return err == nil
}

// writeAtomic writes data via a temp file and rename.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("calibration: write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("calibration: replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
