// internal/schema/schema_test.go
//
// Unit and property tests for Schema.Validate.
//
// Run: go test ./internal/schema -v

package schema

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

type signup struct {
	Name  string `form:"name" validate:"required,min=1" sanitize:"trim,strict"`
	Email string `form:"email" validate:"required,email"`
	Age   int    `form:"age" validate:"min=18"`
}

func newSignup(t testing.TB, opts ...Option[signup]) *Schema[signup] {
	t.Helper()
	s, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestValidate_CoercesAndSanitizes(t *testing.T) {
	s := newSignup(t)

	res := s.Validate(map[string]any{
		"name":  "  <b>Ann</b> ",
		"email": "ann@example.com",
		"age":   " 21 ",
		"extra": "dropped",
	})
	if !res.OK() {
		t.Fatalf("unexpected failure: %s", res.Errors())
	}
	want := signup{Name: "Ann", Email: "ann@example.com", Age: 21}
	if diff := cmp.Diff(want, res.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_StrictKeepsApostrophes(t *testing.T) {
	s := newSignup(t)
	res := s.Validate(map[string]any{"name": "O'Brien & Sons", "email": "o@example.com", "age": 30})
	if !res.OK() {
		t.Fatalf("unexpected failure: %s", res.Errors())
	}
	if got := res.Value().Name; got != "O'Brien & Sons" {
		t.Fatalf("name = %q", got)
	}
}

func TestValidate_MissingFieldsInDeclarationOrder(t *testing.T) {
	s := newSignup(t)

	res := s.Validate(nil)
	if res.OK() {
		t.Fatal("expected failure")
	}
	got := res.Errors()
	want := FlattenedErrors{
		FieldErrors: FieldErrors{
			{Field: "name", Messages: []string{"name is a required field"}},
			{Field: "email", Messages: []string{"email is a required field"}},
			{Field: "age", Messages: []string{"age must be 18 or greater"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_CoercionFailureSuppressesRuleMessages(t *testing.T) {
	s := newSignup(t)

	res := s.Validate(map[string]any{"name": "Ann", "email": "ann@example.com", "age": "abc"})
	if res.OK() {
		t.Fatal("expected failure")
	}
	got := res.Errors().FieldErrors
	if diff := cmp.Diff([]string{"age"}, got.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"age must be a number"}, got.Get("age")); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_NumericInputShapes(t *testing.T) {
	s := newSignup(t)

	cases := []struct {
		name string
		age  any
		want int
		msg  string
	}{
		{"json number", json.Number("30"), 30, ""},
		{"padded json number", json.Number(" 30 "), 30, ""},
		{"integral json decimal", json.Number("30.0"), 30, ""},
		{"integral float", 30.0, 30, ""},
		{"integral decimal text", "30.0", 30, ""},
		{"json number garbage", json.Number("abc"), 0, "age must be a number"},
		{"fractional float", 18.5, 0, "age must be an integer"},
		{"fractional json number", json.Number("18.5"), 0, "age must be an integer"},
		{"fractional text", " 18.5 ", 0, "age must be an integer"},
	}
	for _, c := range cases {
		res := s.Validate(map[string]any{"name": "Ann", "email": "ann@example.com", "age": c.age})
		if c.msg == "" {
			if !res.OK() {
				t.Errorf("%s: unexpected failure: %s", c.name, res.Errors())
				continue
			}
			if res.Value().Age != c.want {
				t.Errorf("%s: age = %d, want %d", c.name, res.Value().Age, c.want)
			}
			continue
		}
		if res.OK() {
			t.Errorf("%s: expected failure, got %+v", c.name, res.Value())
			continue
		}
		errs := res.Errors().FieldErrors
		if diff := cmp.Diff([]string{c.msg}, errs.Get("age")); diff != "" || len(errs) != 1 {
			t.Errorf("%s: messages mismatch (-want +got):\n%s", c.name, diff)
		}
	}
}

func TestValidate_EmptyStringCoercesToZero(t *testing.T) {
	s := newSignup(t)

	res := s.Validate(map[string]any{"name": "Ann", "email": "ann@example.com", "age": ""})
	if got := res.Errors().FieldErrors.Get("age"); len(got) != 1 || got[0] != "age must be 18 or greater" {
		t.Fatalf("age messages = %#v", got)
	}
}

func TestValidate_WhitespaceNameIsRequired(t *testing.T) {
	s := newSignup(t)

	res := s.Validate(map[string]any{"name": "   ", "email": "ann@example.com", "age": 20})
	if diff := cmp.Diff([]string{"name"}, res.Errors().FieldErrors.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestWithRule_FormLevelIssue(t *testing.T) {
	s := newSignup(t, WithRule(func(v signup) []Issue {
		if strings.HasPrefix(v.Email, "admin@") {
			return []Issue{{Message: "Reserved address."}}
		}
		return nil
	}))

	res := s.Validate(map[string]any{"name": "Ann", "email": "admin@example.com", "age": 40})
	want := FlattenedErrors{FormErrors: []string{"Reserved address."}}
	if diff := cmp.Diff(want, res.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	// Rules are skipped while fields are invalid.
	res = s.Validate(map[string]any{"email": "admin@example.com", "age": 40})
	if len(res.Errors().FormErrors) != 0 {
		t.Fatalf("rule ran on invalid input: %#v", res.Errors())
	}
}

func TestWithValidation_CustomTag(t *testing.T) {
	type handle struct {
		Handle string `form:"handle" validate:"noat"`
	}
	noAt := func(fl validator.FieldLevel) bool { return !strings.Contains(fl.Field().String(), "@") }

	s, err := New(WithValidation[handle]("noat", noAt, "{0} must not contain @"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := s.Validate(map[string]any{"handle": "a@b"})
	if got := res.Errors().FieldErrors.Get("handle"); len(got) != 1 || got[0] != "handle must not contain @" {
		t.Fatalf("messages = %#v", got)
	}
}

func TestNew_RejectsMalformedDefinitions(t *testing.T) {
	type badSanitizer struct {
		Name string `sanitize:"shout"`
	}
	type sanitizeInt struct {
		Age int `sanitize:"trim"`
	}
	type badTag struct {
		Name string `validate:"no_such_rule"`
	}
	type dupKey struct {
		A string `form:"x"`
		B string `form:"x"`
	}
	type dupAfterOthers struct {
		Name  string `form:"name"`
		Email string `form:"email"`
		Alias string `form:"name"`
	}

	if _, err := New[int](); err == nil {
		t.Error("non-struct: expected error")
	}
	if _, err := New[badSanitizer](); err == nil {
		t.Error("unknown sanitizer: expected error")
	}
	if _, err := New[sanitizeInt](); err == nil {
		t.Error("sanitize on int: expected error")
	}
	if _, err := New[badTag](); err == nil {
		t.Error("bad validate tag: expected error")
	}
	if _, err := New[dupKey](); err == nil {
		t.Error("duplicate key: expected error")
	}
	if _, err := New[dupAfterOthers](); err == nil || !strings.Contains(err.Error(), `duplicate key "name"`) {
		t.Errorf("duplicate key after others: err = %v", err)
	}
}

func TestFields(t *testing.T) {
	s := newSignup(t)
	if diff := cmp.Diff([]string{"name", "email", "age"}, s.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

// Valid input passes through unchanged, modulo string-to-number coercion.
func TestValidate_RoundTripProperty(t *testing.T) {
	s := newSignup(t)

	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,18}[A-Za-z]`).Draw(t, "name")
		email := rapid.StringMatching(`[a-z]{1,10}@example\.com`).Draw(t, "email")
		age := rapid.IntRange(18, 130).Draw(t, "age")
		shape := rapid.SampledFrom([]string{"int", "string", "json.Number", "float64"}).Draw(t, "age_shape")

		var rawAge any
		switch shape {
		case "int":
			rawAge = age
		case "string":
			rawAge = strconv.Itoa(age)
		case "json.Number":
			rawAge = json.Number(strconv.Itoa(age))
		default:
			rawAge = float64(age)
		}

		res := s.Validate(map[string]any{"name": name, "email": email, "age": rawAge})
		if !res.OK() {
			t.Fatalf("valid input rejected: %s", res.Errors())
		}
		want := signup{Name: name, Email: email, Age: age}
		if diff := cmp.Diff(want, res.Value()); diff != "" {
			t.Fatalf("value changed (-want +got):\n%s", diff)
		}
	})
}

// Every failed result carries at least one message, and its field keys are
// exactly the violated fields.
func TestValidate_FailureKeysProperty(t *testing.T) {
	s := newSignup(t)

	rapid.Check(t, func(t *rapid.T) {
		badName := rapid.Bool().Draw(t, "bad_name")
		badEmail := rapid.Bool().Draw(t, "bad_email")
		badAge := rapid.Bool().Draw(t, "bad_age")

		raw := map[string]any{"name": "Ann", "email": "ann@example.com", "age": 30}
		var want []string
		if badName {
			raw["name"] = ""
			want = append(want, "name")
		}
		if badEmail {
			raw["email"] = rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "email")
			want = append(want, "email")
		}
		if badAge {
			raw["age"] = rapid.IntRange(-50, 17).Draw(t, "age")
			want = append(want, "age")
		}

		res := s.Validate(raw)
		if len(want) == 0 {
			if !res.OK() {
				t.Fatalf("unexpected failure: %s", res.Errors())
			}
			return
		}
		if res.OK() {
			t.Fatal("expected failure")
		}
		errs := res.Errors()
		if errs.Empty() {
			t.Fatal("failure without messages")
		}
		if diff := cmp.Diff(want, errs.FieldErrors.Keys()); diff != "" {
			t.Fatalf("keys mismatch (-want +got):\n%s", diff)
		}
	})
}
