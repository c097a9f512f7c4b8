package kvstore

import "github.com/shopspring/decimal"

// ConvertFloats walks a decoded JSON value and replaces every float64 with
// an arbitrary-precision decimal. The target store rejects native floats, so
// every numeric leaf must be converted before write.
func ConvertFloats(v any) any {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = ConvertFloats(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ConvertFloats(item)
		}
		return out
	}
	return v
}
