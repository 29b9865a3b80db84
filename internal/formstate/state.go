// internal/formstate/state.go
//
// Client-side form state: values, per-field errors, and focus.
//
// Context
// -------
// State is the server-rendered stand-in for a browser form library.  It
// tracks which fields are registered, their current values, the error
// attached to each field (plus the form-level "root" slot), and which field
// holds focus.  The HTML renderer and the formctl CLI both drive a State
// and then read it back.
//
// Notes
// -----
//   - Focus only moves to registered fields.  A ShouldFocus on "root" or on
//     an unknown name records the error but leaves focus alone.
//   - SetError overwrites; the last write for a name wins.
//   - State is not safe for concurrent use.  One per request.
package formstate

import "slices"

// Root is the reserved name for form-level errors.
const Root = "root"

// ManualType marks errors set from outside the form's own validation.
const ManualType = "manual"

// FieldError is the error record attached to one field.
type FieldError struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Types   map[string]string `json:"types,omitempty"`
}

// SetErrorOptions tunes SetError.
type SetErrorOptions struct {
	ShouldFocus bool
}

// Setter is the one capability Apply needs from a form.
type Setter interface {
	SetError(name string, err FieldError, opts SetErrorOptions)
}

// State is an in-memory form.
type State struct {
	fields  []string
	values  map[string]string
	errors  map[string]FieldError
	focused string
}

// New returns a State with fields registered in order.
func New(fields ...string) *State {
	s := &State{
		values: make(map[string]string),
		errors: make(map[string]FieldError),
	}
	for _, f := range fields {
		s.Register(f)
	}
	return s
}

// Register adds name.  Registering twice is a no-op, and "root" is never a
// field.
func (s *State) Register(name string) {
	if name == "" || name == Root || slices.Contains(s.fields, name) {
		return
	}
	s.fields = append(s.fields, name)
}

// Fields lists registered names in registration order.
func (s *State) Fields() []string { return slices.Clone(s.fields) }

// Registered reports whether name is a field.
func (s *State) Registered(name string) bool { return slices.Contains(s.fields, name) }

// SetValue stores a field value.
func (s *State) SetValue(name, value string) { s.values[name] = value }

// Value returns a field value.
func (s *State) Value(name string) string { return s.values[name] }

// Values returns a copy of all values, for submission.
func (s *State) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// SetError implements Setter.
func (s *State) SetError(name string, err FieldError, opts SetErrorOptions) {
	s.errors[name] = err
	if opts.ShouldFocus && s.Registered(name) {
		s.focused = name
	}
}

// Error returns the error on name.
func (s *State) Error(name string) (FieldError, bool) {
	e, ok := s.errors[name]
	return e, ok
}

// RootError is Error(Root).
func (s *State) RootError() (FieldError, bool) { return s.Error(Root) }

// Errors returns a copy of every recorded error.
func (s *State) Errors() map[string]FieldError {
	out := make(map[string]FieldError, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// HasErrors reports whether any error is set.
func (s *State) HasErrors() bool { return len(s.errors) > 0 }

// Focused returns the focused field, or "".
func (s *State) Focused() string { return s.focused }

// Focus moves focus to a registered field.
func (s *State) Focus(name string) {
	if s.Registered(name) {
		s.focused = name
	}
}

// ClearErrors drops all errors and focus, ahead of a new submission.
func (s *State) ClearErrors() {
	clear(s.errors)
	s.focused = ""
}
