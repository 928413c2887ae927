package sim

import (
	"fmt"
	"sort"
)

// Params is a loosely typed parameter map decoded from YAML provider blocks.
// Accessors convert YAML's int/float variants and report type mismatches.
type Params map[string]any

// Float returns the float value of key, or def when unset.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("param %q: expected number, got %T", key, v)
	}
	return f, nil
}

// String returns the string value of key, or def when unset.
func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q: expected string, got %T", key, v)
	}
	return s, nil
}

// Floats returns a numeric list; a missing key yields nil.
func (p Params) Floats(key string) ([]float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []float64:
		return list, nil
	case []any:
		out := make([]float64, len(list))
		for i, item := range list {
			f, ok := toFloat(item)
			if !ok {
				return nil, fmt.Errorf("param %q[%d]: expected number, got %T", key, i, item)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("param %q: expected list, got %T", key, v)
	}
}

// Maps returns a list of nested maps (e.g. rain event windows).
func (p Params) Maps(key string) ([]Params, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("param %q: expected list, got %T", key, v)
	}
	out := make([]Params, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("param %q[%d]: expected map, got %T", key, i, item)
		}
		out[i] = Params(m)
	}
	return out, nil
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
