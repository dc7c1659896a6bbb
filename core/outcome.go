package core

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a unit of work failed.
type FailureKind string

const (
	// FailureTimeout indicates the call did not settle within its deadline.
	FailureTimeout FailureKind = "TIMEOUT"

	// FailureSourceError indicates the underlying source returned an error.
	FailureSourceError FailureKind = "SOURCE_ERROR"
)

// Sentinel errors exposed through Outcome.Err for callers that prefer error
// plumbing over inspecting the Kind field.
var (
	// ErrTimeout marks outcomes of kind FailureTimeout.
	ErrTimeout = errors.New("source call timed out")

	// ErrSource marks outcomes of kind FailureSourceError.
	ErrSource = errors.New("source call failed")
)

// Outcome is the settled result of one (source, query) unit of work.
//
// Exactly one Outcome exists per requested source in an orchestration result;
// outcomes are never dropped. An Outcome is either a success carrying Value or
// a failure carrying Kind and Detail, never both.
type Outcome struct {
	// Source names the source that produced this outcome.
	Source string `json:"source"`

	// Value holds the successful result. Nil on failure.
	Value any `json:"value,omitempty"`

	// Kind classifies the failure. Empty on success.
	Kind FailureKind `json:"kind,omitempty"`

	// Detail carries the underlying error for SOURCE_ERROR outcomes and the
	// exceeded deadline's context error for TIMEOUT outcomes. Nil on success.
	Detail error `json:"-"`
}

// NewSuccess returns a success outcome carrying value.
func NewSuccess(source string, value any) Outcome {
	return Outcome{Source: source, Value: value}
}

// NewTimeoutFailure returns a failure outcome of kind FailureTimeout.
func NewTimeoutFailure(source string, detail error) Outcome {
	return Outcome{Source: source, Kind: FailureTimeout, Detail: detail}
}

// NewSourceFailure returns a failure outcome of kind FailureSourceError.
func NewSourceFailure(source string, detail error) Outcome {
	return Outcome{Source: source, Kind: FailureSourceError, Detail: detail}
}

// IsSuccess reports whether the outcome carries a value.
func (o Outcome) IsSuccess() bool { return o.Kind == "" }

// IsFailure reports whether the outcome carries a typed failure.
func (o Outcome) IsFailure() bool { return o.Kind != "" }

// Err converts a failure outcome into an error that matches the corresponding
// sentinel (ErrTimeout or ErrSource) under errors.Is, wrapping Detail when
// present. It returns nil for success outcomes.
func (o Outcome) Err() error {
	if o.Kind == "" {
		return nil
	}

	kind := ErrSource
	if o.Kind == FailureTimeout {
		kind = ErrTimeout
	}

	if o.Detail == nil {
		return fmt.Errorf("%s: %w", o.Source, kind)
	}

	return fmt.Errorf("%s: %w: %w", o.Source, kind, o.Detail)
}

// String renders the outcome for logs and error messages.
func (o Outcome) String() string {
	if o.IsSuccess() {
		return fmt.Sprintf("Success(%s)", o.Source)
	}

	return fmt.Sprintf("Failure(%s, %s)", o.Source, o.Kind)
}
