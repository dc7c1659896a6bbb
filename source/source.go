package source

import (
	"context"
	"fmt"

	"github.com/hupe1980/querymesh/core"
	"github.com/hupe1980/querymesh/internal/util"
)

// Source names one external data provider and answers queries against it.
//
// Implementations should:
//   - Provide a stable, unique name (it is part of the cache key)
//   - Honour ctx cancellation to stop work early
//   - Be safe for concurrent Fetch calls
//
// A Source never needs to enforce its own deadline or concurrency budget; the
// orchestrator wraps every call with a timeout guard and a concurrency gate.
type Source interface {
	// Name returns the unique identifier for this source.
	Name() string

	// Fetch answers one query. It may fail or run arbitrarily long; the
	// returned value is opaque to the orchestration core.
	Fetch(ctx context.Context, query core.Query) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes used by SourceError for categorization.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeExecutionError  = "EXECUTION_ERROR"
)

// SourceError represents errors that occur while fetching from a source.
type SourceError struct {
	Source  string `json:"source"`  // Name of the source that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
	Err     error  `json:"-"`       // Underlying cause, if any
}

func (e *SourceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("source error [%s] in %s: %s", e.Code, e.Source, e.Message)
	}
	return fmt.Sprintf("source error in %s: %s", e.Source, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError creates a new SourceError with the specified details.
func NewSourceError(source, message, code string) *SourceError {
	return &SourceError{
		Source:  source,
		Message: message,
		Code:    code,
	}
}

// FetchFunc adapts a plain function into a fetch implementation.
type FetchFunc func(ctx context.Context, query core.Query) (any, error)

// funcSource wraps a FetchFunc behind the Source interface.
type funcSource struct {
	name string
	fn   FetchFunc
}

// NewFunc creates a Source from a name and a fetch function. Errors returned
// by fn are wrapped as SourceError with code EXECUTION_ERROR, preserving the
// cause for errors.Is.
func NewFunc(name string, fn FetchFunc) Source {
	return &funcSource{name: name, fn: fn}
}

// Name implements Source.
func (s *funcSource) Name() string { return s.name }

// Fetch implements Source.
func (s *funcSource) Fetch(ctx context.Context, query core.Query) (any, error) {
	if s.fn == nil {
		return nil, NewSourceError(s.name, "no fetch function configured", CodeExecutionError)
	}

	value, err := s.fn(ctx, query)
	if err != nil {
		return nil, &SourceError{
			Source:  s.name,
			Message: err.Error(),
			Code:    CodeExecutionError,
			Err:     err,
		}
	}

	return value, nil
}
