package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/querymesh/core"
)

// Tracker counts overlapping fetches so tests can assert concurrency bounds.
// A single Tracker is typically shared between many probes.
type Tracker struct {
	mu      sync.Mutex
	current int
	max     int
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Enter records the start of one fetch.
func (t *Tracker) Enter() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current++
	if t.current > t.max {
		t.max = t.current
	}
}

// Exit records the end of one fetch.
func (t *Tracker) Exit() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current--
}

// Max returns the highest number of overlapping fetches observed.
func (t *Tracker) Max() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.max
}

// Probe provides a fluent helper for constructing sources in tests.
// Example:
//
//	src := NewProbe("slow").WithDelay(50 * time.Millisecond).WithTracker(tr)
//
// Chain only the parts you need; by default a probe answers immediately with
// "<name>:<query text>".
type Probe struct {
	name     string
	delay    time.Duration
	err      error
	result   any
	panicVal any
	tracker  *Tracker

	mu     sync.Mutex
	calls  int
	starts []time.Time
}

// NewProbe creates a probe source with the given name.
func NewProbe(name string) *Probe { return &Probe{name: name} }

// WithDelay makes every fetch wait for d, honoring ctx cancellation (chainable).
func (p *Probe) WithDelay(d time.Duration) *Probe { p.delay = d; return p }

// WithError makes every fetch fail with err after the delay (chainable).
func (p *Probe) WithError(err error) *Probe { p.err = err; return p }

// WithResult overrides the default generated result value (chainable).
func (p *Probe) WithResult(v any) *Probe { p.result = v; return p }

// WithPanic makes every fetch panic with v after the delay (chainable).
func (p *Probe) WithPanic(v any) *Probe { p.panicVal = v; return p }

// WithTracker attaches a shared concurrency tracker (chainable).
func (p *Probe) WithTracker(t *Tracker) *Probe { p.tracker = t; return p }

// Calls returns how many times Fetch was invoked.
func (p *Probe) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.calls
}

// Starts returns the recorded fetch start times in invocation order.
func (p *Probe) Starts() []time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]time.Time, len(p.starts))
	copy(out, p.starts)

	return out
}

// Name implements the source contract.
func (p *Probe) Name() string { return p.name }

// Fetch implements the source contract.
func (p *Probe) Fetch(ctx context.Context, query core.Query) (any, error) {
	p.mu.Lock()
	p.calls++
	p.starts = append(p.starts, time.Now())
	p.mu.Unlock()

	if p.tracker != nil {
		p.tracker.Enter()
		defer p.tracker.Exit()
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if p.panicVal != nil {
		panic(p.panicVal)
	}

	if p.err != nil {
		return nil, p.err
	}

	if p.result != nil {
		return p.result, nil
	}

	return p.name + ":" + query.Text, nil
}
