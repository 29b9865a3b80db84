// internal/action/result.go
//
// Explicit outcome type for wrapped actions.
//
// Context
// -------
// An action invocation ends in exactly one of three ways:
//
//   - Success            – the processor returned a value.
//   - ValidationFailure  – the input failed the schema; processor never ran.
//   - InternalFailure    – the processor failed; details stay server-side.
//
// Result makes that explicit instead of relying on panics or sentinel
// values.  Callers choose how to surface it: Envelope() for the uniform JSON
// shape, or Unwrap() for the classic (value, error) pair.
//
// Notes
// -----
//   - An InternalFailure carries no trace of the original error.  The
//     wrapper logged it already; nothing here can leak it.
//   - Oxford commas, two spaces after periods.
package action

import (
	"errors"
	"time"

	"github.com/yanizio/formaction/internal/schema"
)

// Kind discriminates Result.
type Kind int

const (
	KindSuccess Kind = iota
	KindValidationFailure
	KindInternalFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindValidationFailure:
		return "validation_failure"
	case KindInternalFailure:
		return "internal_failure"
	default:
		return "unknown"
	}
}

// InternalErrorMessage is the only text a client ever sees for a processing
// failure.
const InternalErrorMessage = "Internal Server Error"

// ErrInternal is the masked processing failure returned by Unwrap.
var ErrInternal = errors.New(InternalErrorMessage)

// ValidationError carries the flattened set for callers using Unwrap.
type ValidationError struct {
	Errors schema.FlattenedErrors
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Errors.String() }

// Result is the outcome of one action invocation.
type Result[O any] struct {
	kind   Kind
	at     time.Time
	data   O
	errors schema.FlattenedErrors
}

func success[O any](at time.Time, data O) Result[O] {
	return Result[O]{kind: KindSuccess, at: at, data: data}
}

func validationFailure[O any](at time.Time, errs schema.FlattenedErrors) Result[O] {
	if errs.Empty() {
		errs.FormErrors = []string{schema.DefaultMessage}
	}
	return Result[O]{kind: KindValidationFailure, at: at, errors: errs}
}

func internalFailure[O any](at time.Time) Result[O] {
	return Result[O]{kind: KindInternalFailure, at: at}
}

// Kind reports which variant r is.
func (r Result[O]) Kind() Kind { return r.kind }

// OK is shorthand for Kind() == KindSuccess.
func (r Result[O]) OK() bool { return r.kind == KindSuccess }

// Timestamp is the clock reading taken when the invocation started.
func (r Result[O]) Timestamp() time.Time { return r.at }

// Data returns the processor's value.  Zero unless OK.
func (r Result[O]) Data() O { return r.data }

// ValidationErrors returns the flattened set.  Empty unless the result is a
// validation failure.
func (r Result[O]) ValidationErrors() schema.FlattenedErrors { return r.errors }

// Unwrap converts r into the raising style: a *ValidationError for invalid
// input, ErrInternal for processing failures.
func (r Result[O]) Unwrap() (O, error) {
	var zero O
	switch r.kind {
	case KindSuccess:
		return r.data, nil
	case KindValidationFailure:
		return zero, &ValidationError{Errors: r.errors}
	default:
		return zero, ErrInternal
	}
}

// Envelope renders r in the uniform client shape.  Internal failures become
// a success:false envelope with a single generic form error.
func (r Result[O]) Envelope() Envelope[O] {
	env := Envelope[O]{Success: r.kind == KindSuccess, Timestamp: r.at.UnixMilli()}
	switch r.kind {
	case KindSuccess:
		env.Data = r.data
	case KindValidationFailure:
		errs := r.errors
		env.Error = &errs
	default:
		env.Error = &schema.FlattenedErrors{FormErrors: []string{InternalErrorMessage}}
	}
	return env
}
