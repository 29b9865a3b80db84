package view

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	rec := httptest.NewRecorder()
	err := Render(rec, http.StatusUnprocessableEntity, Page{
		Title: "Create <user>",
		Flash: "Saved & done",
		Body:  template.HTML(`<form id="x"></form>`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content-type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`<html lang="en">`,
		`<title>Create &lt;user&gt;</title>`,
		`Saved &amp; done`,
		`<form id="x"></form>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in\n%s", want, body)
		}
	}
}

func TestRender_NoFlash(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := Render(rec, http.StatusOK, Page{Title: "t", Lang: "de"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(rec.Body.String(), "fa-flash") || !strings.Contains(rec.Body.String(), `lang="de"`) {
		t.Error(rec.Body.String())
	}
}
