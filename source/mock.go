package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/querymesh/core"
)

// Mock is a lightweight in-memory Source useful for tests & examples. It
// serves canned responses per query text, optionally after a fixed delay, and
// counts invocations.
type Mock struct {
	name string

	mu        sync.Mutex
	responses map[string]any
	delay     time.Duration
	err       error
	calls     int
}

// NewMock constructs a Mock source with the given name.
func NewMock(name string) *Mock {
	return &Mock{
		name:      name,
		responses: make(map[string]any),
	}
}

// AddResponse registers a deterministic canned response for a query text.
func (m *Mock) AddResponse(queryText string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses[queryText] = value
}

// SetDelay makes every Fetch wait for d before answering. The wait honours
// ctx cancellation.
func (m *Mock) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.delay = d
}

// SetError makes every Fetch fail with err. Pass nil to restore success.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

// Calls returns how many times Fetch was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

// Name implements Source.
func (m *Mock) Name() string { return m.name }

// Fetch implements Source; serves the canned response for the query text or a
// generated fallback.
func (m *Mock) Fetch(ctx context.Context, query core.Query) (any, error) {
	m.mu.Lock()
	m.calls++
	delay := m.delay
	err := m.err
	value, ok := m.responses[query.Text]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	if !ok {
		return fmt.Sprintf("Mock response to: %s", query.Text), nil
	}

	return value, nil
}
