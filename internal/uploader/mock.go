package uploader

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Mock is an Uploader recording stored names, for tests.
type Mock struct {
	Err error

	mu     sync.Mutex
	stored []string
}

var _ Uploader = (*Mock)(nil)

func (m *Mock) Store(_ context.Context, r io.Reader, name string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}

	// Drain the reader so callers exercise the streaming path.
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stored = append(m.stored, name)

	return fmt.Sprintf("mock-%d", len(m.stored)), nil
}

// Stored returns the names stored so far.
func (m *Mock) Stored() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.stored))
	copy(out, m.stored)

	return out
}
