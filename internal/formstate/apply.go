// internal/formstate/apply.go
//
// Error applicator.
//
// Context
// -------
// The server answers with a flattened error set.  Apply copies it into a
// form state so the renderer can show each message next to its field and
// put the cursor on the first invalid one.
//
// Notes
// -----
//   - Root is written first and never takes focus, because it is not a
//     registered field.
//   - Oxford commas, two spaces after periods.

package formstate

import "github.com/yanizio/formaction/internal/schema"

// Apply writes a flattened error set into st.
//
// Form-level messages go to Root, one SetError per message.  Field messages
// follow, iterating fields in reverse enumeration order, so the field that
// comes first in the set is the last to request focus and ends up focused.
// Each message is recorded with type "manual".  Every call requests focus;
// Setter implementations decide what focus means for Root.
//
// An empty set changes nothing.  Applying the same set twice leaves the same
// state as applying it once.
func Apply(st Setter, errs schema.FlattenedErrors) {
	for _, msg := range errs.FormErrors {
		st.SetError(Root, manual(msg), SetErrorOptions{ShouldFocus: true})
	}

	fields := errs.FieldErrors
	for i := len(fields) - 1; i >= 0; i-- {
		for _, msg := range fields[i].Messages {
			st.SetError(fields[i].Field, manual(msg), SetErrorOptions{ShouldFocus: true})
		}
	}
}

func manual(msg string) FieldError {
	return FieldError{
		Type:    ManualType,
		Message: msg,
		Types:   map[string]string{"value": "text"},
	}
}
