// internal/action/http.go
//
// JSON transport for an Action.
//
// Context
// -------
// Handler exposes an Action over HTTP.  The request body must be a JSON
// object whose keys are the schema's field names.  The response is always
// the Envelope.  Status codes:
//
//   - 200 – success or validation failure (the envelope says which).
//   - 400 – body is not a JSON object; answered with a form-level envelope.
//   - 500 – internal failure; envelope carries the generic message only.
//
// Numbers are decoded as json.Number so the schema, not encoding/json,
// decides how to coerce them.
package action

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/schema"
)

// MaxBodyBytes caps request bodies accepted by Handler.
const MaxBodyBytes = 1 << 20

// BadRequestMessage is the form-level message for undecodable bodies.
const BadRequestMessage = "Request body must be a JSON object."

// Handler serves a as a JSON endpoint.
func Handler[T, O any](a Action[T, O]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := DecodeJSON(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			env := Envelope[O]{
				Timestamp: time.Now().UnixMilli(),
				Error:     &schema.FlattenedErrors{FormErrors: []string{BadRequestMessage}},
			}
			WriteJSON(w, http.StatusBadRequest, env)
			return
		}

		res := a(r.Context(), raw)
		status := http.StatusOK
		if res.Kind() == KindInternalFailure {
			status = http.StatusInternalServerError
		}
		WriteJSON(w, status, res.Envelope())
	}
}

// DecodeJSON reads exactly one JSON object from body.
func DecodeJSON(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("body is null")
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	return raw, nil
}

// WriteJSON encodes v before touching w so an encoding failure still yields
// a clean 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
