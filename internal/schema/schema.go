// internal/schema/schema.go
//
// Declarative input schema backed by struct tags.
//
// Context
// -------
// A Schema[T] describes valid input as a Go struct.  Each exported field
// carries up to three tags:
//
//	form:"email"             wire key (falls back to the json tag, then the Go name)
//	validate:"required,email" go-playground/validator rules
//	sanitize:"trim,strict"    clean-up applied after coercion, before rules
//
// Validate never panics on caller input.  It always returns a Result that is
// either the typed value or a list of Issues that flatten into the two-part
// error set.  Malformed definitions (non-struct T, unknown sanitizer, bogus
// validate tag) are programmer errors and surface from New instead.
//
// Workflow
// --------
//  1. Each known key is decoded into its field with mapstructure in weak
//     mode, so "18" becomes int 18 and unknown keys are dropped.
//     json.Number is treated as numeric text.  Integer fields reject
//     fractional input ("18.5") rather than truncate it.
//  2. String fields are sanitized.
//  3. validator.Struct runs; failures are translated to English through
//     universal-translator and keyed by wire name.
//  4. Rules registered with WithRule run only when 1 to 3 passed.
//
// Notes
// -----
//   - A field that failed coercion does not also report rule failures.
//   - Schema is immutable after New and safe for concurrent use.
//   - Oxford commas, two spaces after periods.
package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
	"github.com/go-viper/mapstructure/v2"
)

// DefaultMessage is used when a failure would otherwise carry no text.
const DefaultMessage = "Invalid input."

// field is the compiled view of one struct field.
type field struct {
	key      string
	index    []int
	typ      reflect.Type
	sanitize []string
	pos      int
}

// Schema validates raw input into T.
type Schema[T any] struct {
	fields   []field
	byKey    map[string]*field
	validate *validator.Validate
	trans    ut.Translator
	rules    []func(T) []Issue
}

// Option customises a Schema during New.
type Option[T any] func(*Schema[T]) error

// WithRule adds a whole-value rule.  It runs after field validation passed
// and may return form-level (empty path) or field issues.
func WithRule[T any](fn func(T) []Issue) Option[T] {
	return func(s *Schema[T]) error {
		if fn == nil {
			return errors.New("schema: nil rule")
		}
		s.rules = append(s.rules, fn)
		return nil
	}
}

// WithValidation registers a custom validate tag and its English message.
// The message may reference the field name as {0}.
func WithValidation[T any](tag string, fn validator.Func, message string) Option[T] {
	return func(s *Schema[T]) error {
		if err := s.validate.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("schema: register %q: %w", tag, err)
		}
		return s.validate.RegisterTranslation(tag, s.trans,
			func(t ut.Translator) error { return t.Add(tag, message, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, err := t.T(tag, fe.Field())
				if err != nil {
					return DefaultMessage
				}
				return msg
			},
		)
	}
}

// New compiles T into a Schema.
func New[T any](opts ...Option[T]) (*Schema[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct", rt)
	}

	s := &Schema[T]{byKey: make(map[string]*field)}
	seen := make(map[string]bool)
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := fieldKey(sf)
		if key == "-" {
			continue
		}
		if seen[key] {
			return nil, fmt.Errorf("schema: duplicate key %q in %s", key, rt)
		}
		seen[key] = true
		san, err := parseSanitizers(sf.Tag.Get("sanitize"))
		if err != nil {
			return nil, fmt.Errorf("schema: field %s: %w", sf.Name, err)
		}
		if len(san) > 0 && sf.Type.Kind() != reflect.String {
			return nil, fmt.Errorf("schema: field %s: sanitize on non-string", sf.Name)
		}
		s.fields = append(s.fields, field{
			key:      key,
			index:    sf.Index,
			typ:      sf.Type,
			sanitize: san,
			pos:      len(s.fields),
		})
	}
	for i := range s.fields {
		s.byKey[s.fields[i].key] = &s.fields[i]
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		if k := fieldKey(sf); k != "-" {
			return k
		}
		return ""
	})
	enLocale := en.New()
	trans, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	if err := entrans.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("schema: translations: %w", err)
	}
	s.validate, s.trans = v, trans

	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	if err := s.dryRun(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is New for package-level schema variables.
func MustNew[T any](opts ...Option[T]) *Schema[T] {
	s, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns wire keys in declaration order.
func (s *Schema[T]) Fields() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.key
	}
	return out
}

// Validate coerces, sanitizes, and checks raw.  A nil map is treated as an
// empty object.
func (s *Schema[T]) Validate(raw map[string]any) Result[T] {
	var out T
	rv := reflect.ValueOf(&out).Elem()

	var issues []Issue
	failed := make(map[string]bool)

	for _, f := range s.fields {
		in, ok := raw[f.key]
		if !ok || in == nil {
			continue
		}
		if isInteger(f.typ.Kind()) && fractional(in) {
			issues = append(issues, Issue{Path: []string{f.key}, Message: f.key + " must be an integer"})
			failed[f.key] = true
			continue
		}
		ptr := reflect.New(f.typ)
		if err := decodeValue(in, ptr.Interface()); err != nil {
			issues = append(issues, Issue{Path: []string{f.key}, Message: typeMessage(f)})
			failed[f.key] = true
			continue
		}
		if len(f.sanitize) > 0 {
			ptr.Elem().SetString(sanitize(ptr.Elem().String(), f.sanitize))
		}
		rv.FieldByIndex(f.index).Set(ptr.Elem())
	}

	if err := s.validate.Struct(&out); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			issues = append(issues, Issue{Message: DefaultMessage})
		}
		for _, fe := range ves {
			path := splitNamespace(fe.Namespace())
			if len(path) > 0 && failed[path[0]] {
				continue
			}
			issues = append(issues, Issue{Path: path, Message: fe.Translate(s.trans)})
		}
	}

	if len(issues) == 0 {
		for _, rule := range s.rules {
			issues = append(issues, rule(out)...)
		}
	}

	if len(issues) > 0 {
		s.sortIssues(issues)
		return Result[T]{issues: issues}
	}
	return Result[T]{value: out, ok: true}
}

// sortIssues orders form-level issues first, then fields by declaration.
func (s *Schema[T]) sortIssues(issues []Issue) {
	rank := func(is Issue) int {
		if len(is.Path) == 0 {
			return -1
		}
		if f, ok := s.byKey[is.Path[0]]; ok {
			return f.pos
		}
		return len(s.fields)
	}
	sort.SliceStable(issues, func(i, j int) bool { return rank(issues[i]) < rank(issues[j]) })
}

// dryRun validates a zero T so malformed validate tags panic here, at
// construction, rather than on the first request.
func (s *Schema[T]) dryRun() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("schema: invalid validate tag: %v", r)
		}
	}()
	var zero T
	_ = s.validate.Struct(&zero)
	return nil
}

// -----------------------------------------------------------------------------
// Result
// -----------------------------------------------------------------------------

// Result is success(value) or failure(issues).
type Result[T any] struct {
	value  T
	issues []Issue
	ok     bool
}

// OK reports success.
func (r Result[T]) OK() bool { return r.ok }

// Value returns the validated value.  Zero on failure.
func (r Result[T]) Value() T { return r.value }

// Issues returns the raw issue list.
func (r Result[T]) Issues() []Issue { return r.issues }

// Errors flattens the issues.  A failed result never yields an empty set.
func (r Result[T]) Errors() FlattenedErrors {
	if r.ok {
		return FlattenedErrors{}
	}
	fe := Flatten(r.issues)
	if fe.Empty() {
		fe.FormErrors = []string{DefaultMessage}
	}
	return fe
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func fieldKey(sf reflect.StructField) string {
	if k := tagName(sf.Tag.Get("form")); k != "" {
		return k
	}
	if k := tagName(sf.Tag.Get("json")); k != "" {
		return k
	}
	return sf.Name
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return strings.TrimSpace(name)
}

// splitNamespace turns "CreateUserInput.address.city" into
// ["address", "city"].
func splitNamespace(ns string) []string {
	parts := strings.Split(ns, ".")
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}

func decodeValue(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "form",
		DecodeHook:       trimNumeric,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// trimNumeric lets " 18 " coerce like "18".  It accepts any string kind,
// json.Number included, and hands mapstructure a plain string.  Integer
// targets also take integral decimals such as "30.0".
func trimNumeric(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || !isNumeric(to.Kind()) {
		return data, nil
	}
	str := strings.TrimSpace(reflect.ValueOf(data).String())
	if isInteger(to.Kind()) {
		if _, err := strconv.ParseInt(str, 0, 64); err != nil {
			if f, ferr := strconv.ParseFloat(str, 64); ferr == nil && !math.IsInf(f, 0) && f == math.Trunc(f) {
				return strconv.FormatInt(int64(f), 10), nil
			}
		}
	}
	return str, nil
}

// fractional reports whether in is a number, or numeric text, that an
// integer field cannot hold without losing its fraction.
func fractional(in any) bool {
	switch v := in.(type) {
	case float64:
		return v != math.Trunc(v) || math.IsInf(v, 0)
	case float32:
		f := float64(v)
		return f != math.Trunc(f) || math.IsInf(f, 0)
	}
	rv := reflect.ValueOf(in)
	if rv.Kind() != reflect.String {
		return false
	}
	str := strings.TrimSpace(rv.String())
	if _, err := strconv.ParseInt(str, 0, 64); err == nil {
		return false
	}
	f, err := strconv.ParseFloat(str, 64)
	return err == nil && (f != math.Trunc(f) || math.IsInf(f, 0))
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func typeMessage(f field) string {
	if isNumeric(f.typ.Kind()) {
		return f.key + " must be a number"
	}
	switch f.typ.Kind() {
	case reflect.Bool:
		return f.key + " must be a boolean"
	case reflect.String:
		return f.key + " must be a string"
	default:
		return f.key + " is invalid"
	}
}
