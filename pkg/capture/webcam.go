package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"
)

// Webcam is a Source backed by a local camera via GoCV.
// Safe for concurrent use; captures are serialized on the device.
type Webcam struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	cam    *gocv.VideoCapture
	closed bool
}

// NewWebcam creates a webcam source. The device is opened lazily on the
// first capture so construction never blocks on hardware.
func NewWebcam(cfg Config) *Webcam {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultConfig().Quality
	}
	return &Webcam{
		cfg:    cfg,
		logger: slog.Default().With("component", "capture", "device", cfg.Device),
	}
}

// CaptureJPEG grabs one frame and encodes it as JPEG.
// A device that cannot be opened or stops delivering frames returns
// ErrDeviceUnavailable; the device is reopened on the next call.
func (w *Webcam) CaptureJPEG(ctx context.Context) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if w.cam == nil {
		if err := w.open(); err != nil {
			return nil, err
		}
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := w.cam.Read(&img); !ok {
		// Drop the handle so the next capture reopens the device.
		w.cam.Close()
		w.cam = nil
		return nil, fmt.Errorf("%w: read failed on device %d", ErrDeviceUnavailable, w.cfg.Device)
	}
	if img.Empty() {
		return nil, ErrEmptyFrame
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, w.cfg.Quality})
	if err != nil {
		return nil, fmt.Errorf("capture: encode jpeg: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	w.logger.Debug("captured frame", "bytes", len(data))
	return data, nil
}

// Close releases the camera.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	if w.cam != nil {
		err := w.cam.Close()
		w.cam = nil
		return err
	}
	return nil
}

// open acquires the device and applies the requested resolution.
// Caller holds w.mu.
func (w *Webcam) open() error {
	cam, err := gocv.OpenVideoCapture(w.cfg.Device)
	if err != nil {
		return fmt.Errorf("%w: open device %d: %v", ErrDeviceUnavailable, w.cfg.Device, err)
	}

	if w.cfg.Width > 0 {
		cam.Set(gocv.VideoCaptureFrameWidth, float64(w.cfg.Width))
	}
	if w.cfg.Height > 0 {
		cam.Set(gocv.VideoCaptureFrameHeight, float64(w.cfg.Height))
	}

	w.cam = cam
	w.logger.Info("webcam opened", "width", w.cfg.Width, "height", w.cfg.Height)
	return nil
}

// Verify Webcam implements Source at compile time.
var _ Source = (*Webcam)(nil)
