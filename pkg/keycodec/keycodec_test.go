package keycodec

import (
	"testing"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T, pk ...string) *registry.Table {
	t.Helper()
	reg, err := registry.New(registry.TableConfig{
		Name:       "items",
		PrimaryKey: pk,
		Columns:    []string{"product_id", "component_id", "code", "quantity"},
	})
	require.NoError(t, err)
	table, err := reg.Table("items")
	require.NoError(t, err)
	return table
}

func TestEncode(t *testing.T) {
	row := map[string]interface{}{
		"product_id":   float64(7),
		"component_id": int64(3),
		"code":         "A-1",
	}

	assert.Equal(t, "7:3", Encode([]string{"product_id", "component_id"}, row))
	assert.Equal(t, "3:7", Encode([]string{"component_id", "product_id"}, row))
	assert.Equal(t, "A-1", Encode([]string{"code"}, row))
	assert.Equal(t, "2.5", Encode([]string{"quantity"}, map[string]interface{}{"quantity": 2.5}))
}

func TestDecode(t *testing.T) {
	table := testTable(t, "product_id", "component_id")

	filter, err := Decode(table, "7:3")
	require.NoError(t, err)
	require.Len(t, filter, 2)
	assert.Equal(t, "product_id", filter[0].Field.String())
	assert.Equal(t, int64(7), filter[0].Value)
	assert.Equal(t, "component_id", filter[1].Field.String())
	assert.Equal(t, int64(3), filter[1].Value)
	assert.Equal(t, []interface{}{int64(7), int64(3)}, filter.Values())
}

func TestDecodeKeepsNonDigitSegmentsAsStrings(t *testing.T) {
	table := testTable(t, "code")

	filter, err := Decode(table, "A-1")
	require.NoError(t, err)
	assert.Equal(t, "A-1", filter[0].Value)

	filter, err = Decode(table, "-5")
	require.NoError(t, err)
	assert.Equal(t, "-5", filter[0].Value, "only all-digit segments are numeric")

	filter, err = Decode(table, "00012")
	require.NoError(t, err)
	assert.Equal(t, int64(12), filter[0].Value)
}

func TestDecodeMalformed(t *testing.T) {
	table := testTable(t, "product_id", "component_id")

	for _, token := range []string{"7", "7:3:1", "7:", ":3", ""} {
		t.Run(token, func(t *testing.T) {
			_, err := Decode(table, token)
			assert.ErrorIs(t, err, common.ErrMalformedKey)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	table := testTable(t, "product_id", "component_id", "code")

	rows := []map[string]interface{}{
		{"product_id": int64(1), "component_id": int64(2), "code": "chair"},
		{"product_id": float64(15), "component_id": float64(300), "code": "x_y-z"},
		{"product_id": "abc", "component_id": int64(0), "code": "7b"},
	}

	for _, row := range rows {
		token := EncodeRow(table, row)
		filter, err := Decode(table, token)
		require.NoError(t, err)

		decoded := filter.Map()
		for field, want := range row {
			assert.Equal(t, formatValue(want), formatValue(decoded[field]), "field %s of token %s", field, token)
		}
	}
}

func TestFromPayload(t *testing.T) {
	table := testTable(t, "product_id", "component_id")

	filter, complete := FromPayload(table, map[string]interface{}{"product_id": 1.0, "component_id": 2.0, "quantity": 3.0})
	require.True(t, complete)
	assert.Equal(t, []interface{}{1.0, 2.0}, filter.Values())

	_, complete = FromPayload(table, map[string]interface{}{"product_id": 1.0})
	assert.False(t, complete)
}
