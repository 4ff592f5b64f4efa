package forms

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/registry"
)

// Component ids of 1000 and above violate the check constraint, which lets
// tests fail the second statement of the unit.
var schemaDDL = []string{`
CREATE TABLE products (
	product_id INTEGER PRIMARY KEY,
	product_name TEXT NOT NULL,
	price REAL NOT NULL,
	furniture_type TEXT,
	created_date TIMESTAMP
)`, `
CREATE TABLE product_components (
	product_id INTEGER NOT NULL,
	component_id INTEGER NOT NULL CHECK (component_id < 1000),
	quantity REAL NOT NULL,
	PRIMARY KEY (product_id, component_id)
)`}

func setupBunTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err, "Failed to open SQLite database")
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	for _, ddl := range schemaDDL {
		_, err = db.ExecContext(context.Background(), ddl)
		require.NoError(t, err, "Failed to create test tables")
	}
	return db
}

func newTestService(t *testing.T, db *bun.DB) *Service {
	reg, err := registry.New(registry.FurnitureTables()...)
	require.NoError(t, err)
	s, err := NewService(reg, db)
	require.NoError(t, err)
	return s
}

func countRows(t *testing.T, db *bun.DB, model interface{}) int {
	n, err := db.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestCreateProductWithComponents(t *testing.T) {
	db := setupBunTestDB(t)
	s := newTestService(t, db)
	ctx := context.Background()

	resp, err := s.CreateProductWithComponents(ctx, ProductForm{
		Product: map[string]interface{}{
			"product_id":     "10",
			"product_name":   "Oak table",
			"price":          "25000",
			"furniture_type": "table",
		},
		Components: []ComponentInput{
			{ComponentID: 1, Quantity: 4},
			{ComponentID: "2", Quantity: "1.5"},
			{ComponentID: 3, Quantity: 0},
			{ComponentID: nil, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Product and components saved", resp.Message)

	product, ok := resp.Product.(*Product)
	require.True(t, ok)
	assert.Equal(t, int64(10), product.ProductID)
	assert.Equal(t, "Oak table", product.ProductName)
	assert.Equal(t, 25000.0, product.Price)
	require.NotNil(t, product.FurnitureType)
	assert.Equal(t, "table", *product.FurnitureType)

	var links []ProductComponent
	err = db.NewSelect().Model(&links).Order("component_id").Scan(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2, "associations without id or positive quantity are dropped")
	assert.Equal(t, ProductComponent{ProductID: 10, ComponentID: 1, Quantity: 4}, links[0])
	assert.Equal(t, ProductComponent{ProductID: 10, ComponentID: 2, Quantity: 1.5}, links[1])
}

func TestCreateProductWithComponentsRollsBack(t *testing.T) {
	db := setupBunTestDB(t)
	s := newTestService(t, db)

	_, err := s.CreateProductWithComponents(context.Background(), ProductForm{
		Product: map[string]interface{}{"product_id": 11, "product_name": "Chair", "price": 900},
		Components: []ComponentInput{
			{ComponentID: 1, Quantity: 1},
			{ComponentID: 5000, Quantity: 1},
		},
	})
	var txErr *common.TransactionError
	require.ErrorAs(t, err, &txErr)

	status, _ := common.StatusOf(err)
	assert.Equal(t, 500, status)

	assert.Zero(t, countRows(t, db, (*Product)(nil)), "product insert must be rolled back")
	assert.Zero(t, countRows(t, db, (*ProductComponent)(nil)))
}

func TestCreateProductWithComponentsDuplicateLinkKeepsLastQuantity(t *testing.T) {
	db := setupBunTestDB(t)
	s := newTestService(t, db)
	ctx := context.Background()

	_, err := s.CreateProductWithComponents(ctx, ProductForm{
		Product: map[string]interface{}{"product_id": 12, "product_name": "Shelf", "price": 300},
		Components: []ComponentInput{
			{ComponentID: 7, Quantity: 2},
			{ComponentID: 7, Quantity: 6},
		},
	})
	require.NoError(t, err)

	var links []ProductComponent
	require.NoError(t, db.NewSelect().Model(&links).Scan(ctx))
	require.Len(t, links, 1)
	assert.Equal(t, 6.0, links[0].Quantity)
}

func TestCreateProductWithComponentsExistingProduct(t *testing.T) {
	db := setupBunTestDB(t)
	s := newTestService(t, db)
	ctx := context.Background()

	form := ProductForm{
		Product:    map[string]interface{}{"product_id": 13, "product_name": "Bed", "price": 40000},
		Components: []ComponentInput{{ComponentID: 1, Quantity: 1}},
	}
	_, err := s.CreateProductWithComponents(ctx, form)
	require.NoError(t, err)

	form.Components = []ComponentInput{{ComponentID: 2, Quantity: 1}}
	_, err = s.CreateProductWithComponents(ctx, form)
	var conflict *common.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "13", conflict.Key)

	assert.Equal(t, 1, countRows(t, db, (*ProductComponent)(nil)), "second form must not leave a link behind")
}

func TestCreateProductWithComponentsValidation(t *testing.T) {
	db := setupBunTestDB(t)
	s := newTestService(t, db)

	tests := []struct {
		name   string
		form   ProductForm
		fields []string
	}{
		{
			name:   "missing product and components",
			form:   ProductForm{},
			fields: []string{"components", "product"},
		},
		{
			name: "no usable components",
			form: ProductForm{
				Product:    map[string]interface{}{"product_id": 1, "product_name": "Stool", "price": 100},
				Components: []ComponentInput{{ComponentID: 0, Quantity: 3}, {ComponentID: 4, Quantity: -1}},
			},
			fields: []string{"components"},
		},
		{
			name: "invalid product",
			form: ProductForm{
				Product:    map[string]interface{}{"product_name": "Stool"},
				Components: []ComponentInput{{ComponentID: 1, Quantity: 1}},
			},
			fields: []string{"price", "product_id"},
		},
		{
			name: "fractional product id",
			form: ProductForm{
				Product:    map[string]interface{}{"product_id": 1.5, "product_name": "Stool", "price": 100},
				Components: []ComponentInput{{ComponentID: 1, Quantity: 1}},
			},
			fields: []string{"product_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateProductWithComponents(context.Background(), tt.form)
			var validErr *common.ValidationError
			require.ErrorAs(t, err, &validErr)
			assert.Equal(t, tt.fields, validErr.Fields)
		})
	}

	assert.Zero(t, countRows(t, db, (*Product)(nil)))
}
