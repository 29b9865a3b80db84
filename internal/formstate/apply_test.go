package formstate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/yanizio/formaction/internal/schema"
)

func sample() schema.FlattenedErrors {
	return schema.FlattenedErrors{
		FormErrors: []string{"A"},
		FieldErrors: schema.FieldErrors{
			{Field: "name", Messages: []string{"required"}},
			{Field: "email", Messages: []string{"bad"}},
		},
	}
}

func TestApply_FirstFieldEndsFocused(t *testing.T) {
	st := New("name", "email", "age")
	Apply(st, sample())

	if st.Focused() != "name" {
		t.Fatalf("focused = %q, want name", st.Focused())
	}
	root, ok := st.RootError()
	if !ok || root.Message != "A" || root.Type != ManualType {
		t.Fatalf("root = %+v, %v", root, ok)
	}
	if diff := cmp.Diff(map[string]string{"value": "text"}, root.Types); diff != "" {
		t.Fatalf("root types (-want +got):\n%s", diff)
	}
	if e, _ := st.Error("email"); e.Message != "bad" {
		t.Fatalf("email = %+v", e)
	}
	if _, ok := st.Error("age"); ok {
		t.Fatal("age should have no error")
	}
}

// recorder captures the call sequence.
type recorder struct{ calls []string }

func (r *recorder) SetError(name string, e FieldError, o SetErrorOptions) {
	if !o.ShouldFocus || e.Type != ManualType {
		panic("every applied error must be manual and request focus")
	}
	r.calls = append(r.calls, name+":"+e.Message)
}

func TestApply_CallOrder(t *testing.T) {
	errs := schema.FlattenedErrors{
		FormErrors: []string{"A", "B"},
		FieldErrors: schema.FieldErrors{
			{Field: "name", Messages: []string{"n1", "n2"}},
			{Field: "email", Messages: []string{"e1"}},
		},
	}
	r := &recorder{}
	Apply(r, errs)

	want := []string{"root:A", "root:B", "email:e1", "name:n1", "name:n2"}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
}

func TestApply_EmptyIsNoop(t *testing.T) {
	st := New("name")
	st.Focus("name")
	Apply(st, schema.FlattenedErrors{})
	if st.HasErrors() {
		t.Fatal("errors set from empty set")
	}
	if st.Focused() != "name" {
		t.Fatal("focus moved")
	}
}

func TestApply_RootNeverTakesFocus(t *testing.T) {
	st := New("name")
	Apply(st, schema.FlattenedErrors{FormErrors: []string{"Session expired."}})
	if st.Focused() != "" {
		t.Fatalf("focused = %q", st.Focused())
	}
	if _, ok := st.RootError(); !ok {
		t.Fatal("root error missing")
	}
}

func TestApply_Idempotent(t *testing.T) {
	once := New("name", "email")
	Apply(once, sample())

	twice := New("name", "email")
	Apply(twice, sample())
	Apply(twice, sample())

	if diff := cmp.Diff(once.Errors(), twice.Errors()); diff != "" {
		t.Fatalf("errors (-once +twice):\n%s", diff)
	}
	if once.Focused() != twice.Focused() {
		t.Fatalf("focus %q vs %q", once.Focused(), twice.Focused())
	}
}

func TestApply_FocusProperty(t *testing.T) {
	names := []string{"name", "email", "age", "phone", "city"}
	rapid.Check(t, func(t *rapid.T) {
		perm := rapid.Permutation(names).Draw(t, "order")
		picked := perm[:rapid.IntRange(0, len(names)).Draw(t, "count")]
		var fe schema.FieldErrors
		for _, f := range picked {
			n := rapid.IntRange(1, 3).Draw(t, f+"#")
			msgs := make([]string, n)
			for i := range msgs {
				msgs[i] = rapid.StringMatching(`[a-z]{1,5}`).Draw(t, f+"msg")
			}
			fe = append(fe, schema.FieldError{Field: f, Messages: msgs})
		}
		forms := rapid.SliceOfN(rapid.StringMatching(`[A-Z]{1,3}`), 0, 2).Draw(t, "form")
		errs := schema.FlattenedErrors{FormErrors: forms, FieldErrors: fe}

		st := New(names...)
		Apply(st, errs)

		want := ""
		if len(picked) > 0 {
			want = picked[0]
		}
		if st.Focused() != want {
			t.Fatalf("focused = %q, want %q", st.Focused(), want)
		}
		for _, f := range fe {
			got, _ := st.Error(f.Field)
			if got.Message != f.Messages[len(f.Messages)-1] {
				t.Fatalf("%s = %q, want last message", f.Field, got.Message)
			}
		}
		if len(forms) > 0 {
			if r, _ := st.RootError(); r.Message != forms[len(forms)-1] {
				t.Fatalf("root = %q", r.Message)
			}
		}

		again := New(names...)
		Apply(again, errs)
		Apply(again, errs)
		if again.Focused() != st.Focused() {
			t.Fatal("not idempotent")
		}
	})
}
