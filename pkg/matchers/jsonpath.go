package matchers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

// JSONPath matches when every JSONPath condition holds against the JSON
// request body. A condition maps a JSONPath expression to its expected
// value; a condition value of map[string]any{"exists": true} (or false)
// asserts presence or absence instead of equality. A body that is not
// valid JSON never matches.
func JSONPath(conditions map[string]any) Matcher {
	return func(_ *http.Request, body []byte) (bool, string) {
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return false, fmt.Sprintf("request body is not valid json: %v", err)
		}

		for path, expected := range conditions {
			expr, err := jp.ParseString(path)
			if err != nil {
				return false, fmt.Sprintf("invalid JSONPath expression %q: %v", path, err)
			}

			results := expr.Get(data)

			if exists, isExistence := existenceCheck(expected); isExistence {
				if exists != (len(results) > 0) {
					return false, fmt.Sprintf("JSONPath %s existence check failed", path)
				}
				continue
			}

			if !anyValueEqual(results, expected) {
				return false, fmt.Sprintf("JSONPath %s doesn't match %v", path, expected)
			}
		}
		return true, ""
	}
}

// existenceCheck reports whether expected is a {"exists": bool} condition.
func existenceCheck(expected any) (exists, ok bool) {
	m, isMap := expected.(map[string]any)
	if !isMap || len(m) != 1 {
		return false, false
	}
	b, hasExists := m["exists"].(bool)
	if !hasExists {
		return false, false
	}
	return b, true
}

// anyValueEqual reports whether any extracted value equals expected,
// coercing numeric types so JSON float64 values compare with Go ints.
func anyValueEqual(results []any, expected any) bool {
	for _, actual := range results {
		if jsonValueEqual(actual, expected) {
			return true
		}
	}
	return false
}

func jsonValueEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == expected
	}
	if reflect.DeepEqual(actual, expected) {
		return true
	}
	an, aok := toFloat64(actual)
	en, eok := toFloat64(expected)
	return aok && eok && an == en
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
