package form

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/formaction/internal/formstate"
	"github.com/yanizio/formaction/internal/schema"
)

func mustDef(t *testing.T) *FormDef {
	t.Helper()
	fd, err := ParseFormDef([]byte(createYAML), "inline")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return fd
}

func TestRender_Defaults(t *testing.T) {
	fd := mustDef(t)
	out, err := Render(fd, fd.NewState(), RenderOptions{Action: "/", CSRF: newTestCSRF(t)})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		`<form class="fa-form" method="post" action="/" novalidate>`,
		`<input id="fld-name" name="name" required type="text" value="Herman Miller">`,
		`type="number" min="18" value="13">`,
		`name="csrf_token"`,
		`<button type="submit">Save</button>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in\n%s", want, s)
		}
	}
	if strings.Contains(s, "autofocus") || strings.Contains(s, "role=\"alert\"") {
		t.Error("clean render should carry no errors")
	}
}

func TestRender_AppliedErrors(t *testing.T) {
	fd := mustDef(t)
	st := fd.NewState()
	st.SetValue("name", `<script>x</script>`)
	formstate.Apply(st, schema.FlattenedErrors{
		FormErrors: []string{"Try again."},
		FieldErrors: schema.FieldErrors{
			{Field: "email", Messages: []string{"email must be a valid email address"}},
			{Field: "age", Messages: []string{"age must be 18 or greater"}},
		},
	})

	out, err := Render(fd, st, RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		`<div class="form-errors" role="alert">Try again.</div>`,
		`<div class="form-field has-error">`,
		`aria-invalid="true" aria-describedby="err-email" autofocus type="email"`,
		`<span class="error" id="err-age" aria-live="polite">age must be 18 or greater</span>`,
		`value="&lt;script&gt;x&lt;/script&gt;"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in\n%s", want, s)
		}
	}
	if strings.Count(s, "autofocus") != 1 {
		t.Error("exactly one field should be focused")
	}
	if strings.Contains(s, "csrf_token") {
		t.Error("no CSRF option, no token")
	}
}

func TestParse(t *testing.T) {
	c := newTestCSRF(t)
	tok, _ := c.Generate()

	form := url.Values{"name": {"Ann", "ignored"}, "age": {"30"}, csrfField: {tok}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := Parse(req, c)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"name": "Ann", "age": "30"}, raw); diff != "" {
		t.Fatalf("raw (-want +got):\n%s", diff)
	}
}

func TestParse_BadToken(t *testing.T) {
	form := url.Values{"name": {"Ann"}, csrfField: {"forged"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := Parse(req, newTestCSRF(t))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
	if raw["name"] != "Ann" {
		t.Fatal("input should survive a token failure")
	}

	fd := mustDef(t)
	st := fd.NewState()
	fd.Fill(st, raw)
	if st.Value("name") != "Ann" || st.Value("email") != "herman@miller.com" {
		t.Fatalf("fill = %v", st.Values())
	}
}
