package condition

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

func compareNumbers(cmp Comparison, actual, expected float64) bool {
	switch cmp {
	case Equal:
		return actual == expected
	case NotEqual:
		return actual != expected
	case Greater:
		return actual > expected
	case Less:
		return actual < expected
	case GreaterOrEqual:
		return actual >= expected
	case LessOrEqual:
		return actual <= expected
	}
	return false
}

func compareJSON(cmp Comparison, value gjson.Result, expected any) bool {
	switch cmp {
	case Null:
		return value.Type == gjson.Null
	case NotNull:
		return value.Type != gjson.Null
	case Empty:
		return isEmpty(value)
	case NotEmpty:
		return !isEmpty(value)
	case Contains:
		found, ok := contains(value, expected)
		return ok && found
	case NotContains:
		found, ok := contains(value, expected)
		return ok && !found
	case Equal, NotEqual:
		eq := equalJSON(value, expected)
		if cmp == Equal {
			return eq
		}
		return !eq
	case Greater, Less, GreaterOrEqual, LessOrEqual:
		want, ok := toFloat(expected)
		if !ok {
			return false
		}
		var got float64
		switch value.Type {
		case gjson.Number:
			got = value.Num
		case gjson.String:
			f, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
			if err != nil {
				return false
			}
			got = f
		default:
			return false
		}
		return compareNumbers(cmp, got, want)
	}
	return false
}

func isEmpty(value gjson.Result) bool {
	switch {
	case value.Type == gjson.Null:
		return true
	case value.Type == gjson.String:
		return value.Str == ""
	case value.IsArray():
		return len(value.Array()) == 0
	case value.IsObject():
		return len(value.Map()) == 0
	}
	return false
}

// contains reports whether a string holds a substring, an array holds an
// element or an object holds a key. ok is false for scalar values.
func contains(value gjson.Result, expected any) (found bool, ok bool) {
	want := expectedString(expected)
	switch {
	case value.Type == gjson.String:
		return strings.Contains(value.Str, want), true
	case value.IsArray():
		for _, el := range value.Array() {
			if equalJSON(el, expected) {
				return true, true
			}
		}
		return false, true
	case value.IsObject():
		_, has := value.Map()[want]
		return has, true
	}
	return false, false
}

func equalJSON(value gjson.Result, expected any) bool {
	if value.Type == gjson.Number {
		if want, ok := toFloat(expected); ok {
			return value.Num == want
		}
	}
	switch value.Type {
	case gjson.Null:
		return expected == nil || expectedString(expected) == "null"
	case gjson.String:
		return value.Str == expectedString(expected)
	case gjson.True, gjson.False:
		return strconv.FormatBool(value.Bool()) == expectedString(expected)
	}
	return strings.TrimSpace(value.Raw) == expectedString(expected)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func expectedString(v any) string {
	switch e := v.(type) {
	case nil:
		return "null"
	case string:
		return e
	case bool:
		return strconv.FormatBool(e)
	case float64:
		return strconv.FormatFloat(e, 'f', -1, 64)
	case int:
		return strconv.Itoa(e)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
