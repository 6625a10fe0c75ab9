package validator

import (
	"errors"
	"fmt"
	"sort"
)

// Func validates a raw extracted value and returns its normalized form.
// Validators for one route run in params, query, body order; the first
// failure short-circuits the rest of the chain.
type Func func(value any) (any, error)

// ValidationError reports a failed validation for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Fail builds a ValidationError for the given field.
func Fail(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// Map applies per-key checks to a map[string]any value. Keys without a
// check pass through unchanged; a check's error is annotated with the key
// when it carries no field of its own. Keys are visited in sorted order so
// the first failure is deterministic.
func Map(checks map[string]Func) Func {
	keys := make([]string, 0, len(checks))
	for k := range checks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return func(value any) (any, error) {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, ValidationError{Message: "expected an object"}
		}
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		for _, k := range keys {
			v, err := checks[k](m[k])
			if err != nil {
				var ve ValidationError
				if errors.As(err, &ve) && ve.Field == "" {
					ve.Field = k
					return nil, ve
				}
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
}

// IsNumber requires an int64 or float64 value, or an all-digit string.
// String values are normalized to int64.
func IsNumber() Func {
	return func(value any) (any, error) {
		switch v := value.(type) {
		case int64, float64, int:
			return v, nil
		case string:
			if n, ok := parseInt(v); ok {
				return n, nil
			}
		}
		return nil, ValidationError{Message: "must be a number"}
	}
}

// IsBool requires a bool value or a "true"/"false" string.
func IsBool() Func {
	return func(value any) (any, error) {
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			if v == "true" {
				return true, nil
			}
			if v == "false" {
				return false, nil
			}
		}
		return nil, ValidationError{Message: "must be a boolean"}
	}
}

// IsString requires a non-empty string value.
func IsString() Func {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok || s == "" {
			return nil, ValidationError{Message: "must be a non-empty string"}
		}
		return s, nil
	}
}

// Optional passes nil values through and applies check otherwise.
func Optional(check Func) Func {
	return func(value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		return check(value)
	}
}
