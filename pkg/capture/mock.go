package capture

import (
	"context"
	"sync"
)

// Mock implements Source for testing.
// All methods can be customized via function fields.
type Mock struct {
	// CaptureFunc is called when CaptureJPEG is invoked.
	// If nil, returns a tiny static JPEG-like payload.
	CaptureFunc func(ctx context.Context) ([]byte, error)

	// CloseFunc is called when Close is invoked.
	// If nil, returns nil.
	CloseFunc func() error

	mu       sync.Mutex
	captures int
}

// NewMock creates a mock source returning a static frame.
func NewMock() *Mock {
	return &Mock{}
}

// CaptureJPEG calls CaptureFunc and records the call.
func (m *Mock) CaptureJPEG(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	m.captures++
	m.mu.Unlock()

	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx)
	}
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}

// Close calls CloseFunc.
func (m *Mock) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Captures returns how many times CaptureJPEG was called.
func (m *Mock) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// FailingMock returns a mock whose captures always fail with err.
func FailingMock(err error) *Mock {
	return &Mock{
		CaptureFunc: func(ctx context.Context) ([]byte, error) {
			return nil, err
		},
	}
}

// Verify Mock implements Source at compile time.
var _ Source = (*Mock)(nil)
