package tools

import (
	"errors"
	"fmt"

	"github.com/movi-agent/server/internal/store"
)

// ErrBadParams marks a parameter mismatch between the classified call and
// the tool's contract. These errors are reported, never retried.
var ErrBadParams = errors.New("invalid tool parameters")

// entityRef picks the first present key out of params, in priority order.
func entityRef(params map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := params[k]
		if !ok || v == nil {
			continue
		}
		// An id list falls back to its first element.
		if arr, isArr := v.([]any); isArr {
			if len(arr) == 0 {
				continue
			}
			return arr[0], true
		}
		return v, true
	}
	return nil, false
}

func requireRef(params map[string]any, keys ...string) (any, error) {
	v, ok := entityRef(params, keys...)
	if !ok {
		return nil, fmt.Errorf("%w: missing one of %v", ErrBadParams, keys)
	}
	return v, nil
}

func requireString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrBadParams, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %q must be a non-empty string", ErrBadParams, key)
	}
	return s, nil
}

func optionalString(params map[string]any, key, fallback string) string {
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func requireFloat(params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrBadParams, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: %q must be a number", ErrBadParams, key)
}

// requireIDList decodes an ordered id list, accepting JSON numbers and
// digit strings.
func requireIDList(params map[string]any, key string) ([]int64, error) {
	v, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrBadParams, key)
	}
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil, fmt.Errorf("%w: %q must be a non-empty list", ErrBadParams, key)
	}
	out := make([]int64, 0, len(arr))
	for _, el := range arr {
		id, ok := store.RefID(el)
		if !ok {
			return nil, fmt.Errorf("%w: %q contains a non-id element %v", ErrBadParams, key, el)
		}
		out = append(out, id)
	}
	return out, nil
}
