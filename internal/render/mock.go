package render

import (
	"context"
	"sync/atomic"
)

// Mock is a Renderer returning canned content, for tests.
type Mock struct {
	Content string
	Err     error

	calls atomic.Int64
}

func (m *Mock) Render(_ context.Context, _ string) (string, error) {
	m.calls.Add(1)

	if m.Err != nil {
		return "", m.Err
	}

	return m.Content, nil
}

// Calls reports how many times Render was invoked.
func (m *Mock) Calls() int {
	return int(m.calls.Load())
}
