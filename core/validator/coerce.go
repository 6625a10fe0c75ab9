package validator

import "strconv"

// Coerce attempts a permissive conversion of string captures to primitive
// types: all-digit strings become int64, decimal strings become float64,
// and "true"/"false" become bool. Values that cannot be parsed pass through
// unchanged; it is the validator's job to reject them. Maps and string
// slices are coerced element-wise.
func Coerce(value any) any {
	switch v := value.(type) {
	case string:
		return coerceString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = Coerce(e)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Coerce(e)
		}
		return out
	default:
		return value
	}
}

func coerceString(s string) any {
	if s == "" {
		return s
	}
	if n, ok := parseInt(s); ok {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	return s
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
