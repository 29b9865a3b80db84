// internal/form/renderer.go
//
// Forms subsystem: HTML renderer.
//
// Context
//   Given a FormDef and a formstate.State this file produces safe, accessible
//   HTML.  Values, error messages, and focus all come from the state, so the
//   same call serves the first render (defaults, no errors) and every
//   re-render after a failed submission (user input, applied errors).
//
// Workflow
//   •  Render writes the <form> wrapper and, when the state carries a root
//      error, a role="alert" block above the fields.
//   •  writeField emits label, control, and error span per field.  Fields with
//      an error get aria-invalid and aria-describedby.  The focused field gets
//      autofocus.
//   •  A fresh CSRF token is embedded as a hidden input.
//
// Style
//   Output HTML is deliberately plain, with no framework classes, so styling
//   happens via element selectors or class hooks.  Each input gets
//   id="fld-{name}" and is wrapped in <div class="form-field">.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"

	"github.com/yanizio/formaction/internal/formstate"
)

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// Action is the form's POST target.  Empty posts back to the same URL.
	Action string
	// CSRF signs the hidden token.  Nil omits the token input.
	CSRF *CSRF
}

// Render returns the markup for fd in state st.
func Render(fd *FormDef, st *formstate.State, opts RenderOptions) (template.HTML, error) {
	var buf bytes.Buffer

	buf.WriteString(`<form class="fa-form" method="post"`)
	if opts.Action != "" {
		buf.WriteString(` action="` + html.EscapeString(opts.Action) + `"`)
	}
	buf.WriteString(` novalidate>` + "\n")

	if fd.Title != "" {
		buf.WriteString(`<h1>` + html.EscapeString(fd.Title) + `</h1>` + "\n")
	}

	if root, ok := st.RootError(); ok {
		buf.WriteString(`<div class="form-errors" role="alert">` + html.EscapeString(root.Message) + `</div>` + "\n")
	}

	for i := range fd.Fields {
		if err := writeField(&buf, &fd.Fields[i], st); err != nil {
			return "", err
		}
	}

	if opts.CSRF != nil {
		tok, err := opts.CSRF.Generate()
		if err != nil {
			return "", fmt.Errorf("Render: csrf token: %w", err)
		}
		buf.WriteString(`<input type="hidden" name="` + csrfField + `" value="` + tok + `">` + "\n")
	}

	buf.WriteString(`<button type="submit">` + html.EscapeString(fd.Submit) + `</button>` + "\n")
	buf.WriteString(`</form>`)
	return template.HTML(buf.String()), nil
}

// writeField emits HTML for one field into buf.
func writeField(buf *bytes.Buffer, f *FieldDef, st *formstate.State) error {
	name := html.EscapeString(f.Name)
	val := st.Value(f.Name)
	fe, hasErr := st.Error(f.Name)

	if hasErr {
		buf.WriteString(`<div class="form-field has-error">` + "\n")
	} else {
		buf.WriteString(`<div class="form-field">` + "\n")
	}
	buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")

	var attrs bytes.Buffer
	attrs.WriteString(`id="fld-` + name + `" name="` + name + `"`)
	if f.Placeholder != "" {
		attrs.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
	}
	if f.Required {
		attrs.WriteString(` required`)
	}
	if f.MinLength > 0 {
		attrs.WriteString(` minlength="` + strconv.Itoa(f.MinLength) + `"`)
	}
	if f.MaxLength > 0 {
		attrs.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
	}
	if hasErr {
		attrs.WriteString(` aria-invalid="true" aria-describedby="err-` + name + `"`)
	}
	if st.Focused() == f.Name {
		attrs.WriteString(` autofocus`)
	}

	switch f.Type {
	case "text", "email", "number", "password":
		buf.WriteString(`<input ` + attrs.String() + ` type="` + f.Type + `"`)
		if f.Type == "number" && f.Min != "" {
			buf.WriteString(` min="` + html.EscapeString(f.Min) + `"`)
		}
		if f.Pattern != "" {
			buf.WriteString(` pattern="` + html.EscapeString(f.Pattern) + `"`)
		}
		// password fields are never echoed back.
		if val != "" && f.Type != "password" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "textarea":
		buf.WriteString(`<textarea ` + attrs.String() + `>` + html.EscapeString(val) + `</textarea>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	if hasErr {
		buf.WriteString(`<span class="error" id="err-` + name + `" aria-live="polite">` + html.EscapeString(fe.Message) + `</span>` + "\n")
	} else {
		buf.WriteString(`<span class="error" aria-live="polite"></span>` + "\n")
	}

	buf.WriteString(`</div>` + "\n")
	return nil
}
