package forecast

import "math"

// Sanitize recursively walks a response structure and replaces every NaN or
// infinite floating value with an explicit nil so that no malformed number
// ever crosses the serialization boundary. Finite numbers pass through
// untouched.
func Sanitize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = Sanitize(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = Sanitize(val)
		}
		return t
	case []map[string]interface{}:
		for _, m := range t {
			Sanitize(m)
		}
		return t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case float32:
		f := float64(t)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return t
	case *float64:
		if t == nil {
			return nil
		}
		if math.IsNaN(*t) || math.IsInf(*t, 0) {
			return nil
		}
		return *t
	default:
		return v
	}
}
