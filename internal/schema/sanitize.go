// internal/schema/sanitize.go
//
// String clean-up named by the `sanitize` struct tag.
//
// Context
// -------
// Sanitizers run after coercion and before validation rules, in tag order.
// "strict" strips markup through a shared bluemonday StrictPolicy and then
// restores escaped quotes and ampersands, so "O'Brien & Sons" survives while
// "<b>" does not.
//
// Notes
// -----
//   - Unknown names are rejected when the schema is built, never at
//     validation time.
//   - Oxford commas, two spaces after periods.

package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer names accepted in the `sanitize` struct tag.
const (
	SanitizeTrim   = "trim"   // strip surrounding whitespace
	SanitizeStrict = "strict" // strip all markup
	SanitizeLower  = "lower"  // lower-case
)

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

// strict returns the shared markup-stripping policy.  bluemonday policies are
// safe for concurrent use once built.
func strict() *bluemonday.Policy {
	strictOnce.Do(func() { strictPolicy = bluemonday.StrictPolicy() })
	return strictPolicy
}

// parseSanitizers splits a tag value and rejects unknown names.
func parseSanitizers(tag string) ([]string, error) {
	if tag == "" {
		return nil, nil
	}
	var out []string
	for _, name := range strings.Split(tag, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case SanitizeTrim, SanitizeStrict, SanitizeLower:
			out = append(out, name)
		case "":
		default:
			return nil, fmt.Errorf("unknown sanitizer %q", name)
		}
	}
	return out, nil
}

// sanitize applies names in tag order.
func sanitize(s string, names []string) string {
	for _, n := range names {
		switch n {
		case SanitizeTrim:
			s = strings.TrimSpace(s)
		case SanitizeStrict:
			// StrictPolicy escapes what it keeps.  Quotes and ampersands are
			// restored so "O'Brien" survives; angle brackets stay escaped.
			s = unescapeEntities(strict().Sanitize(s))
		case SanitizeLower:
			s = strings.ToLower(s)
		}
	}
	return s
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&#39;", "'",
	"&#34;", `"`,
	"&quot;", `"`,
)

func unescapeEntities(s string) string { return entityReplacer.Replace(s) }
