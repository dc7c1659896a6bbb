package guard

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hupe1980/querymesh/core"
)

// Op is a guarded operation: one call against one source. It must honour ctx
// cancellation to stop doing work early, though the guard does not rely on it
// for its own deadline accounting.
type Op func(ctx context.Context) (any, error)

// Guard applies a fixed per-call deadline to operations. A non-positive
// timeout disables the deadline, leaving only the parent context to bound the
// call.
type Guard struct {
	timeout time.Duration
}

// New creates a guard with the given per-call timeout.
func New(timeout time.Duration) *Guard {
	return &Guard{timeout: timeout}
}

// Timeout returns the configured per-call deadline.
func (g *Guard) Timeout() time.Duration { return g.timeout }

// Do runs op under the guard's deadline, labeling the outcome with source.
func (g *Guard) Do(ctx context.Context, source string, op Op) core.Outcome {
	return Do(ctx, g.timeout, source, op)
}

// Do runs op with its own deadline and settles it into an Outcome:
//
//   - op completes in time: Success(value)
//   - op returns an error first: Failure(SOURCE_ERROR, err)
//   - the deadline (or parent ctx) wins: Failure(TIMEOUT, ctx err); the call
//     keeps running until it observes cancellation, but its result is
//     delivered to a buffered channel nobody reads again and is discarded.
//
// A panicking op settles as Failure(SOURCE_ERROR) carrying the recovered
// value, so one misbehaving source cannot take down its siblings.
func Do(ctx context.Context, timeout time.Duration, source string, op Op) core.Outcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type settled struct {
		value any
		err   error
	}

	// Buffered so an abandoned call's late send never blocks or leaks the goroutine.
	done := make(chan settled, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- settled{err: panicError(r)}
			}
		}()

		value, err := op(ctx)
		done <- settled{value: value, err: err}
	}()

	select {
	case s := <-done:
		if s.err != nil {
			// An op surfacing its context's end is still a timeout, not a source fault.
			if errors.Is(s.err, context.DeadlineExceeded) || errors.Is(s.err, context.Canceled) {
				return core.NewTimeoutFailure(source, s.err)
			}

			return core.NewSourceFailure(source, s.err)
		}

		return core.NewSuccess(source, s.value)
	case <-ctx.Done():
		return core.NewTimeoutFailure(source, ctx.Err())
	}
}

// panicError converts a recovered panic value to an error carrying a stack snapshot.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// Stack returns the goroutine stack captured at the panic site. Callers reach
// it through an interface assertion on Outcome.Detail.
func (p *panicErr) Stack() []byte { return p.stack }
