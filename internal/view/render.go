// internal/view/render.go
//
// Page layout.
//
// Components render their own fragment (a form, a message) and hand it to
// Render, which wraps it in the shared HTML shell.  The shell is parsed
// once from the embedded layout.html.
//
// Output is executed into a buffer first, so a template error never leaves
// a half-written page with a 200 status.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"strconv"
)

//go:embed layout.html
var layoutSrc string

var layout = template.Must(template.New("layout").Parse(layoutSrc))

// Page is the data handed to the layout.
type Page struct {
	Title string
	Lang  string // defaults to "en"
	Flash string
	Body  template.HTML
}

// Render writes p wrapped in the layout with the given status code.
func Render(w http.ResponseWriter, status int, p Page) error {
	if p.Lang == "" {
		p.Lang = "en"
	}
	var buf bytes.Buffer
	if err := layout.Execute(&buf, p); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
