// internal/form/definition.go
//
// Forms subsystem: YAML definition loader.
//
// Context
//   Each HTML form is declared in a YAML file: identifier, title, submit
//   label, and the ordered field list with labels, input types, HTML5 hints,
//   and default values.  At start-up we parse every "*.yaml" under each
//   "components/<comp>/forms/" directory and keep the resulting FormDef in a
//   Registry.  Handlers fetch definitions by ID so markup, defaults, and the
//   server-side schema share one source of truth.
//
// Workflow
//   •  LoadFormDef parses a single YAML file and validates structural rules.
//   •  Registry.Load walks base directories in precedence order.  The first
//      directory to define an ID wins, so overrides go first.
//   •  Registry.Get offers read-only access by ID.
//   •  Check confirms a definition and a schema agree on field names, so a
//      typo in YAML fails at start-up instead of silently dropping input.
//
// Style
//   Full sentences, two spaces after periods, Oxford commas.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/formaction/internal/formstate"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
//
// ID should be namespaced by component, e.g. "users/create".
type FormDef struct {
	ID     string     `yaml:"id"`     // Component-scoped identifier.
	Title  string     `yaml:"title"`  // Display title, optional.
	Submit string     `yaml:"submit"` // Button label.  Defaults to "Submit".
	Fields []FieldDef `yaml:"fields"` // Ordered; order drives rendering.
}

// FieldDef describes a single input control.  The HTML5 hints are advisory;
// the schema is authoritative.
type FieldDef struct {
	Name        string `yaml:"name"`        // Submission key.  Required.
	Label       string `yaml:"label"`       // Human-readable label.  Required.
	Type        string `yaml:"type"`        // text, email, number, password, textarea.
	Placeholder string `yaml:"placeholder"` // Optional placeholder text.
	Default     string `yaml:"default"`     // Initial value on first render.
	Required    bool   `yaml:"required"`    // Adds the required attribute.
	MinLength   int    `yaml:"minlength"`   // ≥ 0, 0 means unset.
	MaxLength   int    `yaml:"maxlength"`   // ≥ 0, 0 means unset.
	Min         string `yaml:"min"`         // Number inputs only.
	Pattern     string `yaml:"pattern"`     // Regex pattern string.
}

// Names returns field names in definition order.
func (fd *FormDef) Names() []string {
	out := make([]string, len(fd.Fields))
	for i, f := range fd.Fields {
		out[i] = f.Name
	}
	return out
}

// NewState returns a form state with every field registered and set to its
// default value.
func (fd *FormDef) NewState() *formstate.State {
	st := formstate.New(fd.Names()...)
	for _, f := range fd.Fields {
		st.SetValue(f.Name, f.Default)
	}
	return st
}

// Check reports a mismatch between the definition's fields and the schema's
// keys.  Order is not compared.
func (fd *FormDef) Check(schemaFields []string) error {
	var missing, extra []string
	for _, f := range fd.Fields {
		if !slices.Contains(schemaFields, f.Name) {
			extra = append(extra, f.Name)
		}
	}
	for _, k := range schemaFields {
		if !slices.Contains(fd.Names(), k) {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	return fmt.Errorf("form %s: fields out of sync with schema (missing %v, unknown %v)", fd.ID, missing, extra)
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// ErrUnknownForm is returned by Lookup when an ID is absent.
var ErrUnknownForm = errors.New("unknown form")

// Registry maps "comp/form" → *FormDef.  Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]*FormDef
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]*FormDef)}
}

// Get returns a parsed FormDef by composite ID.
func (r *Registry) Get(id string) (*FormDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fd, ok := r.forms[id]
	return fd, ok
}

// Lookup is Get with an error for the missing case.
func (r *Registry) Lookup(id string) (*FormDef, error) {
	fd, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownForm, id)
	}
	return fd, nil
}

// Len reports how many forms are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.forms)
}

// Add registers fd unless its ID is already present.  It reports whether fd
// was stored.
func (r *Registry) Add(fd *FormDef) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.forms[fd.ID]; exists {
		return false
	}
	r.forms[fd.ID] = fd
	return true
}

// Load walks each base directory and registers every "*.yaml" under
// "components/*/forms/".  baseDirs is ordered by precedence, highest first.
// A missing base directory is skipped.
//
// Example:
//
//	reg := form.NewRegistry()
//	err := reg.Load("/etc/formaction/overrides", ".")
func (r *Registry) Load(baseDirs ...string) error {
	if len(baseDirs) == 0 {
		return errors.New("Registry.Load: no base directories provided")
	}

	for _, base := range baseDirs {
		root := filepath.Join(base, "components")
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
				return nil
			}
			if filepath.Base(filepath.Dir(path)) != "forms" {
				return nil
			}

			fd, err := LoadFormDef(path)
			if err != nil {
				return err // fail fast so issues surface loudly.
			}
			r.Add(fd)
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Loader
// -----------------------------------------------------------------------------

// LoadFormDef parses one YAML file and validates its structure.
func LoadFormDef(path string) (*FormDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseFormDef(raw, path)
}

// ParseFormDef is LoadFormDef for bytes already in memory.  src names the
// origin in error messages.
func ParseFormDef(raw []byte, src string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := validateFormDef(&fd, src); err != nil {
		return nil, err
	}
	if fd.Submit == "" {
		fd.Submit = "Submit"
	}
	return &fd, nil
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

var inputTypes = map[string]bool{
	"text":     true,
	"email":    true,
	"number":   true,
	"password": true,
	"textarea": true,
}

func validateFormDef(fd *FormDef, path string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", path)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", path)
	}

	seen := make(map[string]struct{}, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, path); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", path, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func validateField(f *FieldDef, path string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", path)
	}
	if f.Name == formstate.Root || f.Name == csrfField {
		return fmt.Errorf("form %s: field name '%s' is reserved", path, f.Name)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", path, f.Name)
	}
	if !inputTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", path, f.Name, f.Type)
	}
	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", path, f.Name, err)
		}
	}
	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", path, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", path, f.Name)
	}
	return nil
}
