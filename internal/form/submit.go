// internal/form/submit.go
//
// Forms subsystem: form-encoded submission parsing.
//
// Context
//   Handlers want one call that parses a POST body, checks the CSRF token,
//   and hands the schema a plain map.  Parse does that.  Values stay strings;
//   coercion is the schema's job.  Only the first value of a repeated key is
//   kept, and the token itself never reaches the schema.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/yanizio/formaction/internal/formstate"
)

// ErrInvalidToken is returned by Parse when the CSRF token fails.
var ErrInvalidToken = errors.New("csrf token invalid")

// TokenMessage is the form-level message shown for ErrInvalidToken.
const TokenMessage = "Security token invalid.  Please refresh and try again."

// Parse reads r's form body, verifies its CSRF token with c, and returns the
// remaining values.  The map is returned even on ErrInvalidToken so the form
// can be re-rendered with what the user typed.
func Parse(r *http.Request, c *CSRF) (map[string]any, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	raw := Values(r.PostForm)
	if !c.Verify(r.PostForm.Get(csrfField)) {
		return raw, ErrInvalidToken
	}
	return raw, nil
}

// Values flattens url.Values to first values, dropping the CSRF field.
func Values(v url.Values) map[string]any {
	out := make(map[string]any, len(v))
	for k, vs := range v {
		if k == csrfField || len(vs) == 0 {
			continue
		}
		out[k] = vs[0]
	}
	return out
}

// Fill copies submitted strings into st for re-rendering.  Only fields the
// form defines are copied.
func (fd *FormDef) Fill(st *formstate.State, raw map[string]any) {
	for _, f := range fd.Fields {
		if s, ok := raw[f.Name].(string); ok {
			st.SetValue(f.Name, s)
		}
	}
}
