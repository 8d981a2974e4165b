package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"ttmusic/internal/models"
)

// fieldState tells what a typed lookup found under a key.
type fieldState int

const (
	fieldAbsent fieldState = iota
	fieldInvalid
	fieldValid
)

// lookup returns the raw value and whether the key holds a non-null value.
func lookup(raw models.RawRecord, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}

// firstTruthy returns the first value under keys that is not empty, zero or false.
func firstTruthy(raw models.RawRecord, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := lookup(raw, key); ok && truthy(v) {
			return v, true
		}
	}

	return nil, false
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String() != ""
		}

		return f != 0
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	case models.RawRecord:
		return len(val) > 0
	default:
		return true
	}
}

// toInt64 converts numeric-like input to int64. Floats are truncated toward
// zero, strings must hold a base-10 integer, and values outside the int64
// range are rejected.
func toInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, true
		}

		f, err := val.Float64()
		if err != nil {
			return 0, false
		}

		return floatToInt64(f)
	case float64:
		return floatToInt64(val)
	case float32:
		return floatToInt64(float64(val))
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case bool:
		if val {
			return 1, true
		}

		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}

	return int64(t), true
}

// toInt accepts integers, integral floats and integer strings. Unlike the id
// coercion it refuses booleans and fractional values.
func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case bool:
		return 0, false
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return clampInt(n)
		}

		f, err := val.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
	}

	n, ok := toInt64(v)
	if !ok {
		return 0, false
	}

	return clampInt(n)
}

func clampInt(n int64) (int, bool) {
	if n < math.MinInt || n > math.MaxInt {
		return 0, false
	}

	return int(n), true
}

func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true", "t", "yes", "y", "on":
			return true, true
		case "0", "false", "f", "no", "n", "off":
			return false, true
		}
	case json.Number:
		switch val.String() {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	}

	return false, false
}

// stringify renders an id candidate. JSON numbers keep their literal digits
// and booleans render as True/False, the form upstream ids were built with.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "True"
		}

		return "False"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}

		return string(b)
	}
}

func asObject(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case models.RawRecord:
		return val, true
	default:
		return nil, false
	}
}

func stringField(raw map[string]any, key string) (*string, fieldState) {
	v, ok := lookup(raw, key)
	if !ok {
		return nil, fieldAbsent
	}

	s, ok := v.(string)
	if !ok {
		return nil, fieldInvalid
	}

	return &s, fieldValid
}

func intField(raw map[string]any, key string) (*int, fieldState) {
	v, ok := lookup(raw, key)
	if !ok {
		return nil, fieldAbsent
	}

	n, ok := toInt(v)
	if !ok {
		return nil, fieldInvalid
	}

	return &n, fieldValid
}

func boolField(raw map[string]any, key string) (*bool, fieldState) {
	v, ok := lookup(raw, key)
	if !ok {
		return nil, fieldAbsent
	}

	b, ok := toBool(v)
	if !ok {
		return nil, fieldInvalid
	}

	return &b, fieldValid
}

func objectField(raw map[string]any, key string) (map[string]any, fieldState) {
	v, ok := lookup(raw, key)
	if !ok {
		return nil, fieldAbsent
	}

	obj, ok := asObject(v)
	if !ok {
		return nil, fieldInvalid
	}

	return obj, fieldValid
}

// stringList keeps only the string entries of v, in order. Anything that is
// not a list yields an empty, non-nil slice.
func stringList(v any) []string {
	out := []string{}

	switch val := v.(type) {
	case []any:
		for _, entry := range val {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, val...)
	}

	return out
}
