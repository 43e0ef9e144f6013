package vision

import (
	"context"
	"sync"
)

// Mock implements Classifier for testing.
// All methods can be customized via function fields.
type Mock struct {
	// DescribeFunc is called when Describe is invoked.
	// If nil, returns a static description.
	DescribeFunc func(ctx context.Context, frame []byte) (string, error)

	// AnalyzeFunc is called when Analyze is invoked.
	// If nil, returns a fully focused analysis.
	AnalyzeFunc func(ctx context.Context, frame []byte, baseline string) (Analysis, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	mu       sync.Mutex
	analyses int
}

// NewMock creates a mock classifier that always reports full focus.
func NewMock() *Mock {
	return &Mock{}
}

// ScriptedMock returns a mock that replays the given scores in order,
// repeating the last one when exhausted.
func ScriptedMock(scores ...int) *Mock {
	var mu sync.Mutex
	idx := 0
	return &Mock{
		AnalyzeFunc: func(ctx context.Context, frame []byte, baseline string) (Analysis, error) {
			mu.Lock()
			defer mu.Unlock()
			score := scores[idx]
			if idx < len(scores)-1 {
				idx++
			}
			return Analysis{FocusScore: score, Observations: "scripted"}, nil
		},
	}
}

// Describe calls DescribeFunc.
func (m *Mock) Describe(ctx context.Context, frame []byte) (string, error) {
	if m.DescribeFunc != nil {
		return m.DescribeFunc(ctx, frame)
	}
	return "person at desk, facing screen, typing", nil
}

// Analyze calls AnalyzeFunc and records the call.
func (m *Mock) Analyze(ctx context.Context, frame []byte, baseline string) (Analysis, error) {
	m.mu.Lock()
	m.analyses++
	m.mu.Unlock()

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, frame, baseline)
	}
	return Analysis{FocusScore: 100, Observations: "mock"}, nil
}

// Health calls HealthFunc.
func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Analyses returns how many times Analyze was called.
func (m *Mock) Analyses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analyses
}

// Verify Mock implements Classifier at compile time.
var _ Classifier = (*Mock)(nil)
