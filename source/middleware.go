package source

import (
	"context"
	"time"

	"github.com/hupe1980/querymesh/core"
	"github.com/hupe1980/querymesh/internal/util"
	"github.com/hupe1980/querymesh/logging"
)

// Middleware decorates a Source with cross-cutting behavior while keeping the
// Source contract intact.
type Middleware func(Source) Source

// Chain wraps s with the given middlewares; the first middleware becomes the
// outermost layer, so Chain(s, a, b) fetches through a -> b -> s.
func Chain(s Source, mws ...Middleware) Source {
	for i := len(mws) - 1; i >= 0; i-- {
		s = mws[i](s)
	}

	return s
}

// instrumented logs every fetch with timing and error context.
type instrumented struct {
	next   Source
	logger logging.Logger
}

// WithInstrumentation returns a middleware that logs call start, success and
// failure for the wrapped source, including duration_ms.
func WithInstrumentation(logger logging.Logger) Middleware {
	return func(next Source) Source {
		return &instrumented{next: next, logger: logger}
	}
}

// Name implements Source.
func (s *instrumented) Name() string { return s.next.Name() }

// Fetch implements Source.
func (s *instrumented) Fetch(ctx context.Context, query core.Query) (any, error) {
	s.logger.Debug("source.call.start",
		"source", s.next.Name(),
		"query", logging.Truncate(query.Text, 120),
	)

	start := time.Now()
	value, err := s.next.Fetch(ctx, query)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("source.call.error",
			"source", s.next.Name(),
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)

		return nil, err
	}

	s.logger.Info("source.call.success",
		"source", s.next.Name(),
		"duration_ms", duration.Milliseconds(),
	)

	return value, nil
}

// validated checks query params against a schema before fetching.
type validated struct {
	next   Source
	schema map[string]any
}

// WithValidation returns a middleware that validates query params against a
// JSON schema style definition (required fields, type checks, enums) before
// the wrapped source is called. Validation failures surface as SourceError
// with code VALIDATION_ERROR and never reach the underlying source.
func WithValidation(schema map[string]any) Middleware {
	return func(next Source) Source {
		return &validated{next: next, schema: schema}
	}
}

// Name implements Source.
func (s *validated) Name() string { return s.next.Name() }

// Fetch implements Source.
func (s *validated) Fetch(ctx context.Context, query core.Query) (any, error) {
	if err := util.ValidateParameters(query.Params, s.schema); err != nil {
		return nil, &SourceError{
			Source:  s.next.Name(),
			Message: err.Error(),
			Code:    CodeValidationError,
			Err:     err,
		}
	}

	return s.next.Fetch(ctx, query)
}
