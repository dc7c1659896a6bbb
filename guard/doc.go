// Package guard wraps a single source invocation with a deadline, converting
// overrun into a typed timeout failure instead of letting the call run
// unbounded. A guarded call that settles in time yields a success or source
// error outcome; one that overruns is cancelled through its child context and
// its eventual result is discarded, so a stray completion can never overwrite
// state a faster call already produced.
package guard
