package gate

import (
	"context"
	"fmt"
)

// Gate bounds how many guarded operations execute simultaneously. The zero
// value is not usable; construct with New.
type Gate struct {
	slots chan struct{}
}

// New creates a gate admitting at most capacity concurrent holders.
// Capacity must be positive; it cannot be changed after construction.
func New(capacity int) (*Gate, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("gate capacity must be positive, got %d", capacity)
	}

	return &Gate{slots: make(chan struct{}, capacity)}, nil
}

// Acquire claims a slot, suspending the calling goroutine until one frees or
// ctx is done. It returns ctx.Err() when the wait is abandoned.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire claims a slot without blocking, reporting whether it succeeded.
func (g *Gate) TryAcquire() bool {
	select {
	case g.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a previously acquired slot. Releasing without a matching
// acquire is a programming error and panics.
func (g *Gate) Release() {
	select {
	case <-g.slots:
	default:
		panic("gate: release without matching acquire")
	}
}

// Run executes fn while holding a slot, releasing it on every exit path. The
// acquire error (a done ctx) is returned without invoking fn; otherwise Run
// returns fn's error.
func (g *Gate) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()

	return fn(ctx)
}

// InFlight returns the number of slots currently held.
func (g *Gate) InFlight() int { return len(g.slots) }

// Capacity returns the fixed slot capacity.
func (g *Gate) Capacity() int { return cap(g.slots) }
