// Package keycodec serializes primary keys into the opaque tokens used in
// record URLs ("7:3" for product_id=7, component_id=3) and back.
package keycodec

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/registry"
)

// Separator joins key segments. Key values must not contain it.
const Separator = ":"

var digitsPattern = regexp.MustCompile(`^\d+$`)

// KeyPart is one primary key field and its value.
type KeyPart struct {
	Field registry.Identifier
	Value interface{}
}

// KeyFilter holds the key fields of one record in primary key order.
type KeyFilter []KeyPart

// Values returns the key values in primary key order.
func (k KeyFilter) Values() []interface{} {
	values := make([]interface{}, len(k))
	for i, part := range k {
		values[i] = part.Value
	}
	return values
}

func (k KeyFilter) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(k))
	for _, part := range k {
		m[part.Field.String()] = part.Value
	}
	return m
}

// Encode joins the values of fields in row, in fields order.
func Encode(fields []string, row map[string]interface{}) string {
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = formatValue(row[field])
	}
	return strings.Join(parts, Separator)
}

// EncodeRow encodes the primary key of row for table.
func EncodeRow(table *registry.Table, row map[string]interface{}) string {
	pk := table.PrimaryKey()
	fields := make([]string, len(pk))
	for i, id := range pk {
		fields[i] = id.String()
	}
	return Encode(fields, row)
}

// Decode parses token into a KeyFilter for table. All-digit segments become
// int64, everything else stays a string.
func Decode(table *registry.Table, token string) (KeyFilter, error) {
	pk := table.PrimaryKey()
	segments := strings.Split(token, Separator)
	if len(segments) != len(pk) {
		return nil, fmt.Errorf("%w: expected %d segments, got %d", common.ErrMalformedKey, len(pk), len(segments))
	}

	filter := make(KeyFilter, len(pk))
	for i, field := range pk {
		segment := segments[i]
		if segment == "" {
			return nil, fmt.Errorf("%w: empty value for %s", common.ErrMalformedKey, field)
		}
		filter[i] = KeyPart{Field: field, Value: coerce(segment)}
	}
	return filter, nil
}

// FromPayload extracts the primary key of table from a normalized payload.
// complete is false when any key field is missing.
func FromPayload(table *registry.Table, payload map[string]interface{}) (filter KeyFilter, complete bool) {
	pk := table.PrimaryKey()
	filter = make(KeyFilter, 0, len(pk))
	for _, field := range pk {
		value, ok := payload[field.String()]
		if !ok {
			return nil, false
		}
		filter = append(filter, KeyPart{Field: field, Value: value})
	}
	return filter, true
}

func coerce(segment string) interface{} {
	if digitsPattern.MatchString(segment) {
		if n, err := strconv.ParseInt(segment, 10, 64); err == nil {
			return n
		}
	}
	return segment
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return formatValue(float64(val))
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
