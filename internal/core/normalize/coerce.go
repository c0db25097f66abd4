package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AsFloat converts the loosely typed values the upstream API returns into a
// float64. Placeholder strings ("-", "--", ...) and absent values report
// ok=false; unit suffixes like " W" or "%" are stripped before parsing.
// Booleans map to 0/1 so flag fields share the numeric pipeline.
func AsFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(v)
		switch s {
		case "", "-", "--", "---", "----":
			return 0, false
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "W"), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// clampPercent bounds percentage and signal-strength fields to [0,100].
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// subFields returns a nested payload object, tolerating absence and nulls.
func subFields(fields map[string]any, key string) map[string]any {
	if fields == nil {
		return nil
	}
	sub, _ := fields[key].(map[string]any)
	return sub
}
