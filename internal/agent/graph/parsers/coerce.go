package parsers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// intField reads a number from m[key], rounding floats and accepting numeric
// strings, and clamps it to [lo,hi]. Anything else yields def.
func intField(m map[string]any, key string, def, lo, hi int) int {
	v, ok := toFloat(m[key])
	if !ok {
		return def
	}
	// clamp before converting: out-of-range floats have no defined int value
	v = math.Max(float64(lo), math.Min(float64(hi), v))
	return int(math.Round(v))
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// enumField returns the allowed value matching m[key] case-insensitively, or def.
func enumField[T ~string](m map[string]any, key string, allowed []T, def T) T {
	s, ok := m[key].(string)
	if !ok {
		return def
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if string(a) == s {
			return a
		}
	}
	return def
}

// textValue returns the trimmed string at m[key], or placeholder when absent or blank.
func textValue(m map[string]any, key, placeholder string) string {
	s, ok := m[key].(string)
	if !ok {
		return placeholder
	}
	if s = strings.TrimSpace(s); s == "" {
		return placeholder
	}
	return s
}

// listField returns the non-blank entries of m[key]; never nil.
func listField(m map[string]any, key string) []string {
	out := []string{}
	arr, ok := m[key].([]any)
	if !ok {
		return out
	}
	for _, item := range arr {
		var s string
		switch t := item.(type) {
		case string:
			s = t
		case json.Number, float64, bool:
			s = fmt.Sprint(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func singleLine(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
