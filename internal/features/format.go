package features

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FormatValue renders a feature value for the report. Top-level strings are
// written bare; everything else uses the literal notation agents already see
// from the Signals SDK: lists as ['a', 'b'], True/False, None.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return literal(v)
}

func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return quote(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case json.Number:
		return t.String()
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case *orderedmap.OrderedMap[string, any]:
		if t == nil {
			return "None"
		}
		parts := make([]string, 0, t.Len())
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			parts = append(parts, quote(pair.Key)+": "+literal(pair.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case map[string]any:
		// no order to keep; sort for stable output
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, quote(k)+": "+literal(t[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, literal(rv.Index(i).Interface()))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

// quote prefers single quotes and switches to double quotes only when the
// string contains a single quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	// shortest round-trip digits, positional between 1e-4 and 1e16
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
