// Package capture provides webcam frame acquisition for go-warden.
//
// The Source interface hides the device behind "produce the current frame as
// JPEG bytes, on demand". The production implementation uses the local webcam
// via GoCV/OpenCV; tests use the in-package Mock.
package capture

import (
	"context"
	"errors"
)

// Sentinel errors for the capture package.
var (
	// ErrDeviceUnavailable indicates the webcam could not be opened or
	// stopped delivering frames.
	ErrDeviceUnavailable = errors.New("capture: device unavailable")

	// ErrEmptyFrame indicates the device returned a frame with no data.
	ErrEmptyFrame = errors.New("capture: empty frame")

	// ErrClosed indicates the source has been closed.
	ErrClosed = errors.New("capture: source closed")
)

// Source produces webcam frames on demand.
type Source interface {
	// CaptureJPEG grabs one frame and returns it encoded as JPEG.
	// Blocks for the duration of the capture, bounded by ctx.
	CaptureJPEG(ctx context.Context) ([]byte, error)

	// Close releases the device.
	Close() error
}

// Config holds webcam parameters.
type Config struct {
	// Device is the OS camera index.
	Device int

	// Width and Height request a capture resolution.
	Width  int
	Height int

	// Quality is the JPEG encode quality (1-100).
	Quality int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Device:  0,
		Width:   640,
		Height:  480,
		Quality: 85,
	}
}
