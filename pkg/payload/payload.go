package payload

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/bitechdev/furniture-admin/pkg/registry"
)

// Normalize converts untyped client input into typed values according to
// schema. Unknown fields, nil values and empty strings are dropped; number
// fields that do not parse are dropped too. The result only holds keys that
// are present in both raw and schema.
func Normalize(schema map[string]registry.FieldSchema, raw map[string]interface{}) map[string]interface{} {
	normalized := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		field, ok := schema[key]
		if !ok || isEmpty(value) {
			continue
		}

		if field.Type == registry.TypeNumber {
			if n, ok := ToNumber(value); ok {
				normalized[key] = n
			}
			continue
		}

		normalized[key] = value
	}
	return normalized
}

// Coerce converts a single raw value for field, reporting false when the
// value would be dropped by Normalize.
func Coerce(field registry.FieldSchema, value interface{}) (interface{}, bool) {
	if isEmpty(value) {
		return nil, false
	}
	if field.Type == registry.TypeNumber {
		n, ok := ToNumber(value)
		return n, ok
	}
	return value, true
}

// ToNumber parses v as a finite float64.
func ToNumber(v interface{}) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case json.Number:
		return val == ""
	}
	return false
}
