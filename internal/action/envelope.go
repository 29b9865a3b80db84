// internal/action/envelope.go
//
// Client-facing envelope for a Result.
//
// Context
// -------
// Every action answer travels in one JSON shape.  Success carries data;
// failure carries the two-part error set.  Keys are written in a fixed
// order and only the branch selected by success appears.  Decoding checks
// the same rule, so a client can never hold an envelope that is both.
//
// Notes
// -----
//   - Timestamps are Unix milliseconds, taken when the action was entered.
//   - An internal failure is an ordinary success:false envelope whose only
//     message is InternalErrorMessage.
//   - Oxford commas, two spaces after periods.

package action

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yanizio/formaction/internal/schema"
)

// Envelope is the wire form of a Result:
//
//	{"success":true,"timestamp":1712325980344,"data":{...}}
//	{"success":false,"timestamp":1712325980344,"error":{"formErrors":[],"fieldErrors":{...}}}
//
// Exactly one of Data and Error is meaningful, selected by Success.
type Envelope[O any] struct {
	Success   bool
	Timestamp int64 // Unix milliseconds
	Data      O
	Error     *schema.FlattenedErrors
}

// MarshalJSON emits keys in contract order and only the branch selected by
// Success.
func (e Envelope[O]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"success":%t,"timestamp":%d,`, e.Success, e.Timestamp)
	if e.Success {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"data":`)
		buf.Write(raw)
	} else {
		errs := schema.FlattenedErrors{}
		if e.Error != nil {
			errs = *e.Error
		}
		raw, err := json.Marshal(errs)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"error":`)
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ErrMalformedEnvelope is returned when a decoded envelope breaks the
// success/error invariant.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// UnmarshalJSON decodes and checks the invariant: success:true never carries
// error, success:false always carries a non-empty error set.
func (e *Envelope[O]) UnmarshalJSON(b []byte) error {
	var w struct {
		Success   *bool                   `json:"success"`
		Timestamp int64                   `json:"timestamp"`
		Data      json.RawMessage         `json:"data"`
		Error     *schema.FlattenedErrors `json:"error"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Success == nil {
		return fmt.Errorf("%w: missing success", ErrMalformedEnvelope)
	}

	out := Envelope[O]{Success: *w.Success, Timestamp: w.Timestamp}
	if out.Success {
		if w.Error != nil {
			return fmt.Errorf("%w: success with error", ErrMalformedEnvelope)
		}
		if len(w.Data) > 0 {
			if err := json.Unmarshal(w.Data, &out.Data); err != nil {
				return fmt.Errorf("envelope data: %w", err)
			}
		}
	} else {
		if w.Error == nil || w.Error.Empty() {
			return fmt.Errorf("%w: failure without errors: %w", ErrMalformedEnvelope, schema.ErrEmptyErrors)
		}
		out.Error = w.Error
	}
	*e = out
	return nil
}
