// Package templating renders the small note template language:
//
//	{{name}}                      value of name, empty when absent
//	{{name|date('YYYY-MM-DD')}}   value of name formatted as a date
//	{% if name %}...{% endif %}   kept when name is truthy
//	{% if not name %}...{% endif %}
//
// Conditionals do not nest. Unknown variables render empty and malformed
// markers are left in the output as written.
package templating

import (
	"math"
	"regexp"

	"github.com/spf13/cast"

	"github.com/mrlokans/kobo-highlights/internal/dateformat"
)

// Context maps variable names to primitive values. A nil value is treated as absent.
type Context map[string]any

// Merge returns a new context holding c overlaid with override.
func (c Context) Merge(override Context) Context {
	merged := make(Context, len(c)+len(override))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

var (
	conditionalPattern = regexp.MustCompile(`\{%\s*if\s+(not\s+)?(\w+)\s*%\}([\s\S]*?)\{%\s*endif\s*%\}`)
	variablePattern    = regexp.MustCompile(`\{\{\s*(\w+)\s*(?:\|\s*date\(\s*['"]([^'"]*)['"]\s*\)\s*)?\}\}`)
)

// Render resolves conditionals, then substitutes variables in a single pass.
// Substituted values are never re-scanned for markers.
func Render(template string, ctx Context) string {
	resolved := conditionalPattern.ReplaceAllStringFunc(template, func(block string) string {
		m := conditionalPattern.FindStringSubmatch(block)
		negate, name, body := m[1] != "", m[2], m[3]
		if IsTruthy(ctx[name]) != negate {
			return body
		}
		return ""
	})

	return variablePattern.ReplaceAllStringFunc(resolved, func(ref string) string {
		m := variablePattern.FindStringSubmatchIndex(ref)
		name := ref[m[2]:m[3]]
		value, ok := ctx[name]
		if !ok || value == nil {
			return ""
		}
		if m[4] >= 0 {
			return dateformat.Format(cast.ToString(value), ref[m[4]:m[5]])
		}
		return cast.ToString(value)
	})
}

// IsTruthy reports whether a context value enables a conditional block.
// Absent values, empty strings, false and numeric zero are falsy.
func IsTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float32, float64:
		f := cast.ToFloat64(v)
		return f != 0 && !math.IsNaN(f)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt64(v) != 0
	default:
		return true
	}
}
