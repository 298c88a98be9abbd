package edit

import (
	"strconv"
	"strings"

	"github.com/agentic-research/confedit/internal/tree"
	"github.com/tidwall/gjson"
)

// Coerce turns a raw replacement string into a scalar. The text is read as a
// JSON literal: true/false, null, numbers and quoted strings keep their type.
// Anything else, including object and array literals, is kept verbatim as a
// string and fallback is reported as true.
func Coerce(raw string) (value *tree.Scalar, fallback bool) {
	if !gjson.Valid(raw) {
		return tree.NewString(raw), true
	}
	res := gjson.Parse(raw)
	switch res.Type {
	case gjson.True:
		return tree.NewBool(true), false
	case gjson.False:
		return tree.NewBool(false), false
	case gjson.Null:
		return tree.NewNull(), false
	case gjson.String:
		return tree.NewString(res.Str), false
	case gjson.Number:
		return coerceNumber(strings.TrimSpace(res.Raw), res.Num), false
	default:
		// gjson.JSON: an object or array literal.
		return tree.NewString(raw), true
	}
}

// coerceNumber keeps integer literals that fit in int64 as integers.
func coerceNumber(lit string, f float64) *tree.Scalar {
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return tree.NewInt(i)
		}
	}
	return tree.NewFloat(f)
}
