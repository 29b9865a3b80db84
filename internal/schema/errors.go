// internal/schema/errors.go
//
// Issue tree and the flattened two-part error set.
//
// Context
// -------
// Validation produces a list of Issues, each carrying a path into the input
// and a user-facing message.  Clients do not want a tree; they want the
// shape every form renderer understands:
//
//	{ "formErrors": ["..."], "fieldErrors": { "name": ["..."] } }
//
// Flatten folds the issue list into that shape.  An empty path becomes a
// form-level message.  Otherwise the first path segment names the field.
// Field order is first-seen order, which the schema guarantees is struct
// declaration order, so the error applicator can pick the first field.
//
// Notes
// -----
//   - FieldErrors is an ordered slice, not a map, because key order is part
//     of the contract.  It still marshals as a JSON object.
//   - Oxford commas, two spaces after periods.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Issue is one validation failure.  Path is empty for form-level issues.
type Issue struct {
	Path    []string
	Message string
}

// FieldError groups the messages for one field.
type FieldError struct {
	Field    string
	Messages []string
}

// FieldErrors is an ordered mapping from field name to messages.
type FieldErrors []FieldError

// Get returns the messages recorded for name, or nil.
func (fe FieldErrors) Get(name string) []string {
	for _, e := range fe {
		if e.Field == name {
			return e.Messages
		}
	}
	return nil
}

// Keys returns field names in enumeration order.
func (fe FieldErrors) Keys() []string {
	out := make([]string, 0, len(fe))
	for _, e := range fe {
		out = append(out, e.Field)
	}
	return out
}

// add appends msg to name, creating the entry on first sight.
func (fe FieldErrors) add(name, msg string) FieldErrors {
	for i := range fe {
		if fe[i].Field == name {
			fe[i].Messages = append(fe[i].Messages, msg)
			return fe
		}
	}
	return append(fe, FieldError{Field: name, Messages: []string{msg}})
}

// MarshalJSON writes an object whose keys follow slice order.  Entries with
// no messages are skipped so only violated fields appear.
func (fe FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, e := range fe {
		if len(e.Messages) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		k, err := json.Marshal(e.Field)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Messages)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object while keeping key order.  Null values are
// tolerated and dropped, matching the optional entries of the wire shape.
func (fe *FieldErrors) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*fe = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fieldErrors: expected object, got %v", tok)
	}

	var out FieldErrors
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fieldErrors: unexpected key %v", tok)
		}
		var msgs []string
		if err := dec.Decode(&msgs); err != nil {
			return fmt.Errorf("fieldErrors[%s]: %w", key, err)
		}
		if len(msgs) == 0 {
			continue
		}
		out = append(out, FieldError{Field: key, Messages: msgs})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*fe = out
	return nil
}

// FlattenedErrors is the two-part validation error set sent to clients.
type FlattenedErrors struct {
	FormErrors  []string    `json:"formErrors"`
	FieldErrors FieldErrors `json:"fieldErrors"`
}

// Empty reports whether the set carries no message at all.
func (f FlattenedErrors) Empty() bool {
	if len(f.FormErrors) > 0 {
		return false
	}
	for _, e := range f.FieldErrors {
		if len(e.Messages) > 0 {
			return false
		}
	}
	return true
}

// MarshalJSON never emits null for formErrors.
func (f FlattenedErrors) MarshalJSON() ([]byte, error) {
	type wire struct {
		FormErrors  []string    `json:"formErrors"`
		FieldErrors FieldErrors `json:"fieldErrors"`
	}
	w := wire{FormErrors: f.FormErrors, FieldErrors: f.FieldErrors}
	if w.FormErrors == nil {
		w.FormErrors = []string{}
	}
	return json.Marshal(w)
}

// String renders a compact single-line summary for logs.
func (f FlattenedErrors) String() string {
	var parts []string
	parts = append(parts, f.FormErrors...)
	for _, e := range f.FieldErrors {
		for _, m := range e.Messages {
			parts = append(parts, e.Field+": "+m)
		}
	}
	if len(parts) == 0 {
		return "no validation errors"
	}
	return strings.Join(parts, "; ")
}

// ErrEmptyErrors is returned when a failure carries no message.
var ErrEmptyErrors = errors.New("validation failure without messages")

// Flatten folds issues into the two-part shape, preserving message order and
// first-seen field order.
func Flatten(issues []Issue) FlattenedErrors {
	var out FlattenedErrors
	for _, is := range issues {
		msg := strings.TrimSpace(is.Message)
		if msg == "" {
			continue
		}
		if len(is.Path) == 0 || is.Path[0] == "" {
			out.FormErrors = append(out.FormErrors, msg)
			continue
		}
		out.FieldErrors = out.FieldErrors.add(is.Path[0], msg)
	}
	return out
}
