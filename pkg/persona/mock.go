package persona

import (
	"context"
	"sync"
)

// Mock implements Generator for testing.
type Mock struct {
	// RemarkFunc is called when Remark is invoked.
	// If nil, returns a static remark.
	RemarkFunc func(ctx context.Context, p Persona, observations string) (string, error)

	mu      sync.Mutex
	remarks int
}

// NewMock creates a mock generator with a static remark.
func NewMock() *Mock {
	return &Mock{}
}

// Remark calls RemarkFunc and records the call.
func (m *Mock) Remark(ctx context.Context, p Persona, observations string) (string, error) {
	m.mu.Lock()
	m.remarks++
	m.mu.Unlock()

	if m.RemarkFunc != nil {
		return m.RemarkFunc(ctx, p, observations)
	}
	return "Back to work.", nil
}

// Remarks returns how many times Remark was called.
func (m *Mock) Remarks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remarks
}

// Verify Mock implements Generator at compile time.
var _ Generator = (*Mock)(nil)
