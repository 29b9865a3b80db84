package schema

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlatten(t *testing.T) {
	issues := []Issue{
		{Message: "Form expired."},
		{Path: []string{"email"}, Message: "bad"},
		{Path: []string{"name"}, Message: "required"},
		{Path: []string{"email", "domain"}, Message: "unknown domain"},
		{Path: []string{"name"}, Message: "   "},
		{Path: []string{""}, Message: "Try again."},
	}

	got := Flatten(issues)
	want := FlattenedErrors{
		FormErrors: []string{"Form expired.", "Try again."},
		FieldErrors: FieldErrors{
			{Field: "email", Messages: []string{"bad", "unknown domain"}},
			{Field: "name", Messages: []string{"required"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenedErrors_JSONKeepsFieldOrder(t *testing.T) {
	fe := FlattenedErrors{
		FieldErrors: FieldErrors{
			{Field: "name", Messages: []string{"required"}},
			{Field: "email", Messages: []string{"bad"}},
			{Field: "age"},
		},
	}
	raw, err := json.Marshal(fe)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	const want = `{"formErrors":[],"fieldErrors":{"name":["required"],"email":["bad"]}}`
	if string(raw) != want {
		t.Fatalf("json = %s, want %s", raw, want)
	}
}

func TestFieldErrors_UnmarshalKeepsOrderAndDropsNull(t *testing.T) {
	var fe FlattenedErrors
	in := `{"formErrors":["A"],"fieldErrors":{"zeta":["z"],"age":null,"alpha":["a1","a2"]}}`
	if err := json.Unmarshal([]byte(in), &fe); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := FlattenedErrors{
		FormErrors: []string{"A"},
		FieldErrors: FieldErrors{
			{Field: "zeta", Messages: []string{"z"}},
			{Field: "alpha", Messages: []string{"a1", "a2"}},
		},
	}
	if diff := cmp.Diff(want, fe); diff != "" {
		t.Fatalf("unmarshal mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldErrors_UnmarshalRejectsArray(t *testing.T) {
	var fe FieldErrors
	if err := json.Unmarshal([]byte(`["name"]`), &fe); err == nil {
		t.Fatal("expected error")
	}
}

func TestFlattenedErrors_Empty(t *testing.T) {
	if !(FlattenedErrors{}).Empty() {
		t.Error("zero value should be empty")
	}
	if !(FlattenedErrors{FieldErrors: FieldErrors{{Field: "x"}}}).Empty() {
		t.Error("field without messages should be empty")
	}
	if (FlattenedErrors{FormErrors: []string{"A"}}).Empty() {
		t.Error("form error should not be empty")
	}
}
