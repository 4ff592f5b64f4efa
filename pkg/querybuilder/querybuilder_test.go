package querybuilder

import (
	"math"
	"regexp"
	"strconv"
	"testing"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/keycodec"
	"github.com/bitechdev/furniture-admin/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

func furnitureTable(t *testing.T, name string) *registry.Table {
	t.Helper()
	reg, err := registry.New(registry.FurnitureTables()...)
	require.NoError(t, err)
	table, err := reg.Table(name)
	require.NoError(t, err)
	return table
}

func column(t *testing.T, table *registry.Table, name string) registry.Identifier {
	t.Helper()
	id, ok := table.Column(name)
	require.True(t, ok, "column %s", name)
	return id
}

// assertPlaceholders checks that placeholders are numbered 1..len(params)
// in order of appearance with no gaps or reuse.
func assertPlaceholders(t *testing.T, f Fragment) {
	t.Helper()
	matches := placeholderPattern.FindAllStringSubmatch(f.Text, -1)
	require.Len(t, matches, len(f.Params), "statement: %s", f.Text)
	for i, m := range matches {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.Equal(t, i+1, n, "statement: %s", f.Text)
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultLimit},
		{1, 25, 1, 25},
		{3, 500, 3, MaxLimit},
		{-2, -7, 1, 1},
		{2, 1, 2, 1},
		{5, 100, 5, 100},
		{math.MaxInt, 100, MaxPage, 100},
		{math.MaxInt / 50, 100, MaxPage, 100},
		{MaxPage, 0, MaxPage, DefaultLimit},
	}

	for _, tt := range tests {
		page, limit := ClampPage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantLimit, limit)
	}
}

func TestBuildWhere(t *testing.T) {
	products := furnitureTable(t, "products")
	furnitureType := column(t, products, "furniture_type")
	name := column(t, products, "product_name")

	t.Run("no conditions", func(t *testing.T) {
		f, err := BuildWhere(nil, nil, products.Name())
		require.NoError(t, err)
		assert.Empty(t, f.Text)
		assert.Empty(t, f.Params)
	})

	t.Run("filters and search", func(t *testing.T) {
		f, err := BuildWhere(
			[]Filter{{Field: furnitureType, Value: "table"}},
			&Search{Field: name, Term: "oak"},
			products.Name(),
		)
		require.NoError(t, err)
		assert.Equal(t, " WHERE (products.furniture_type = $1 AND products.product_name ILIKE $2)", f.Text)
		assert.Equal(t, []interface{}{"table", "%oak%"}, f.Params)
		assertPlaceholders(t, f)
	})

	t.Run("empty filter values are skipped", func(t *testing.T) {
		f, err := BuildWhere(
			[]Filter{{Field: furnitureType, Value: ""}},
			&Search{Field: name, Term: "oak"},
			registry.Identifier{},
		)
		require.NoError(t, err)
		assert.Equal(t, " WHERE (product_name ILIKE $1)", f.Text)
		assert.Equal(t, []interface{}{"%oak%"}, f.Params)
	})

	t.Run("search without term", func(t *testing.T) {
		f, err := BuildWhere(nil, &Search{Field: name}, products.Name())
		require.NoError(t, err)
		assert.Empty(t, f.Text)
	})
}

func TestBuildSelect(t *testing.T) {
	products := furnitureTable(t, "products")
	price := column(t, products, "price")
	furnitureType := column(t, products, "furniture_type")
	name := column(t, products, "product_name")

	f, err := BuildSelect(SelectParams{
		Table:   products.Name(),
		Columns: products.Columns(),
		Filters: []Filter{{Field: furnitureType, Value: "chair"}},
		Search:  &Search{Field: name, Term: "arm"},
		Sort:    Sort{Field: price, Direction: registry.Desc},
		Page:    3,
		Limit:   10,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT products.product_id, products.product_name, products.price, products.furniture_type, products.created_date "+
			"FROM products WHERE (products.furniture_type = $1 AND products.product_name ILIKE $2) "+
			"ORDER BY products.price DESC LIMIT $3 OFFSET $4",
		f.Text)
	assert.Equal(t, []interface{}{"chair", "%arm%", 10, 20}, f.Params)
	assertPlaceholders(t, f)

	assert.Equal(t, "(products.furniture_type = $1 AND products.product_name ILIKE $2)", f.WhereClause)
	assert.Equal(t, []interface{}{"chair", "%arm%"}, f.WhereParams)
}

func TestBuildSelectClampsLimit(t *testing.T) {
	products := furnitureTable(t, "products")

	for _, limit := range []int{0, 1, 50, 100, 101, 10000, -3} {
		f, err := BuildSelect(SelectParams{
			Table:   products.Name(),
			Columns: products.Columns(),
			Limit:   limit,
		})
		require.NoError(t, err)

		bound := f.Params[len(f.Params)-2].(int)
		assert.GreaterOrEqual(t, bound, 1)
		assert.LessOrEqual(t, bound, MaxLimit)
		assertPlaceholders(t, f)
	}
}

func TestBuildSelectHugePageKeepsOffsetNonNegative(t *testing.T) {
	products := furnitureTable(t, "products")

	for _, page := range []int{math.MaxInt, math.MaxInt / 50, MaxPage + 1} {
		for _, limit := range []int{0, 1, 100, 10000} {
			f, err := BuildSelect(SelectParams{
				Table:   products.Name(),
				Columns: products.Columns(),
				Page:    page,
				Limit:   limit,
			})
			require.NoError(t, err)

			offset := f.Params[len(f.Params)-1].(int)
			assert.GreaterOrEqual(t, offset, 0, "page %d limit %d", page, limit)
		}
	}
}

func TestBuildSelectOmitsUnknownSort(t *testing.T) {
	products := furnitureTable(t, "products")
	components := furnitureTable(t, "components")

	f, err := BuildSelect(SelectParams{
		Table:   products.Name(),
		Columns: products.Columns(),
		Sort:    Sort{Field: column(t, components, "process_number"), Direction: registry.Asc},
	})
	require.NoError(t, err)
	assert.NotContains(t, f.Text, "ORDER BY")

	f, err = BuildSelect(SelectParams{
		Table:   products.Name(),
		Columns: products.Columns(),
	})
	require.NoError(t, err)
	assert.NotContains(t, f.Text, "ORDER BY")
}

func TestBuildSelectWithJoins(t *testing.T) {
	pc := furnitureTable(t, "product_components")

	f, err := BuildSelect(SelectParams{
		Table:   pc.Name(),
		Columns: pc.Columns(),
		Filters: []Filter{{Field: column(t, pc, "product_id"), Value: float64(7)}},
		Joins:   pc.Joins(),
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT product_components.product_id, product_components.component_id, product_components.quantity, "+
			"products.product_name AS products_product_name, components.component_name AS components_component_name "+
			"FROM product_components "+
			"LEFT JOIN products ON product_components.product_id = products.product_id "+
			"LEFT JOIN components ON product_components.component_id = components.component_id "+
			"WHERE (product_components.product_id = $1) LIMIT $2 OFFSET $3",
		f.Text)
	assert.Equal(t, []interface{}{float64(7), DefaultLimit, 0}, f.Params)
	assertPlaceholders(t, f)

	count, err := BuildCount(pc.Name(), pc.Joins(), f)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) AS total FROM product_components "+
			"LEFT JOIN products ON product_components.product_id = products.product_id "+
			"LEFT JOIN components ON product_components.component_id = components.component_id "+
			"WHERE (product_components.product_id = $1)",
		count.Text)
	assert.Equal(t, []interface{}{float64(7)}, count.Params)
	assertPlaceholders(t, count)
}

func TestBuildCountWithoutWhere(t *testing.T) {
	products := furnitureTable(t, "products")

	f, err := BuildSelect(SelectParams{Table: products.Name(), Columns: products.Columns()})
	require.NoError(t, err)

	count, err := BuildCount(products.Name(), nil, f)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS total FROM products", count.Text)
	assert.Empty(t, count.Params)
}

func TestBuildGetOne(t *testing.T) {
	pc := furnitureTable(t, "product_components")
	key, err := keycodec.Decode(pc, "7:3")
	require.NoError(t, err)

	f, err := BuildGetOne(pc.Name(), pc.Columns(), nil, key)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT product_components.product_id, product_components.component_id, product_components.quantity "+
			"FROM product_components WHERE (product_components.product_id = $1 AND product_components.component_id = $2)",
		f.Text)
	assert.Equal(t, []interface{}{int64(7), int64(3)}, f.Params)
}

func TestBuildInsert(t *testing.T) {
	products := furnitureTable(t, "products")

	f, err := BuildInsert(products.Name(), []Assignment{
		{Column: column(t, products, "product_id"), Value: float64(1)},
		{Column: column(t, products, "product_name"), Value: "Desk"},
		{Column: column(t, products, "price"), Value: float64(120)},
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO products (product_id,product_name,price) VALUES ($1,$2,$3) RETURNING *", f.Text)
	assert.Equal(t, []interface{}{float64(1), "Desk", float64(120)}, f.Params)

	_, err = BuildInsert(products.Name(), nil)
	assert.Error(t, err)
}

func TestBuildUpdate(t *testing.T) {
	pp := furnitureTable(t, "production_process")
	key, err := keycodec.Decode(pp, "4:9:2")
	require.NoError(t, err)

	f, err := BuildUpdate(pp.Name(), []Assignment{
		{Column: column(t, pp, "material_quantity"), Value: float64(12)},
	}, key)
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE production_process SET material_quantity = $1 "+
			"WHERE (component_id = $2 AND material_id = $3 AND operation_id = $4) RETURNING *",
		f.Text)
	assert.Equal(t, []interface{}{float64(12), int64(4), int64(9), int64(2)}, f.Params)
	assertPlaceholders(t, f)
}

func TestBuildUpdateRejectsEmptyPayload(t *testing.T) {
	products := furnitureTable(t, "products")
	key, err := keycodec.Decode(products, "1")
	require.NoError(t, err)

	_, err = BuildUpdate(products.Name(), nil, key)
	assert.ErrorIs(t, err, common.ErrNothingToUpdate)
}

func TestBuildDelete(t *testing.T) {
	pc := furnitureTable(t, "product_components")
	key, err := keycodec.Decode(pc, "7:3")
	require.NoError(t, err)

	f, err := BuildDelete(pc.Name(), key)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM product_components WHERE (product_id = $1 AND component_id = $2)", f.Text)
	assert.NotContains(t, f.Text, "RETURNING")
	assert.Equal(t, []interface{}{int64(7), int64(3)}, f.Params)

	_, err = BuildDelete(pc.Name(), nil)
	assert.Error(t, err)
}

func TestBuildExists(t *testing.T) {
	pc := furnitureTable(t, "product_components")
	key, err := keycodec.Decode(pc, "7:3")
	require.NoError(t, err)

	f, err := BuildExists(pc.Name(), key)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM product_components WHERE (product_id = $1 AND component_id = $2) LIMIT 1", f.Text)
	assertPlaceholders(t, f)
}
