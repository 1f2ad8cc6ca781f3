package tools

import (
	"bytes"
	"encoding/json"

	"github.com/d-kuro/todo-mcp/internal/errors"
)

// Args is the untyped argument bag a tool is called with, as decoded from
// JSON. Numbers are float64 and arrays are []any.
type Args map[string]any

// DecodeArgs parses raw tool arguments. Missing arguments and JSON null
// yield an empty bag.
func DecodeArgs(raw json.RawMessage) (Args, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Args{}, nil
	}

	var args Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, errors.Validation("Arguments must be a JSON object")
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

// Has reports whether key is present with a non-null value.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String returns the string under key. The boolean reports presence; a
// present value of another type is a validation error.
func (a Args) String(key string) (string, bool, error) {
	if !a.Has(key) {
		return "", false, nil
	}
	s, ok := a[key].(string)
	if !ok {
		return "", true, errors.Validationf("%s must be a string", key)
	}
	return s, true, nil
}

// Bool returns the boolean under key, with the same presence rules as String.
func (a Args) Bool(key string) (bool, bool, error) {
	if !a.Has(key) {
		return false, false, nil
	}
	b, ok := a[key].(bool)
	if !ok {
		return false, true, errors.Validationf("%s must be a boolean", key)
	}
	return b, true, nil
}

// Strings returns the string list under key. Every element must be a string.
// A present empty list is returned as a non-nil empty slice.
func (a Args) Strings(key string) ([]string, bool, error) {
	if !a.Has(key) {
		return nil, false, nil
	}
	switch v := a[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, true, errors.Validationf("%s must be an array of strings", key)
			}
			out = append(out, s)
		}
		return out, true, nil
	default:
		return nil, true, errors.Validationf("%s must be an array of strings", key)
	}
}
