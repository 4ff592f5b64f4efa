// Package forms implements multi-table writes that must succeed or fail as
// one unit.
package forms

import (
	"context"
	"database/sql"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/uptrace/bun"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/database"
	"github.com/bitechdev/furniture-admin/pkg/logger"
	"github.com/bitechdev/furniture-admin/pkg/payload"
	"github.com/bitechdev/furniture-admin/pkg/registry"
	"github.com/bitechdev/furniture-admin/pkg/validation"
)

const productsTable = "products"

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Service writes composite forms through bun transactions.
type Service struct {
	db       bun.IDB
	schema   map[string]registry.FieldSchema
	product  *validation.Validator
	validate *validator.Validate
}

// NewService uses the products table of reg to normalize and validate the
// product half of a form.
func NewService(reg *registry.Registry, db bun.IDB) (*Service, error) {
	table, err := reg.Table(productsTable)
	if err != nil {
		return nil, err
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	schema := table.Schema()
	return &Service{
		db:       db,
		schema:   schema,
		product:  validation.Build(schema, validation.Options{}),
		validate: validate,
	}, nil
}

// CreateProductWithComponents inserts the product and upserts each
// component association in one transaction. On any failure nothing is
// written.
func (s *Service) CreateProductWithComponents(ctx context.Context, form ProductForm) (*common.FormResponse, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, toValidationError(err)
	}

	product, err := s.buildProduct(form.Product)
	if err != nil {
		return nil, err
	}

	links := buildLinks(form.Components)
	if len(links) == 0 {
		return nil, &common.ValidationError{
			Fields:  []string{"components"},
			Message: "at least one component with an id and a positive quantity is required",
		}
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		insert := tx.NewInsert().Model(product).Returning("*")
		if product.CreatedDate == nil {
			insert = insert.ExcludeColumn("created_date")
		}
		if _, err := insert.Exec(ctx); err != nil {
			return err
		}

		for _, link := range links {
			link.ProductID = product.ProductID
			_, err := tx.NewInsert().
				Model(link).
				On("CONFLICT (product_id, component_id) DO UPDATE").
				Set("quantity = EXCLUDED.quantity").
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, &common.ConflictError{Table: productsTable, Key: strconv.FormatInt(product.ProductID, 10)}
		}
		logger.Error("Product form rolled back for product %d: %v", product.ProductID, err)
		return nil, &common.TransactionError{Op: "create product with components", Err: err}
	}

	logger.Info("Created product %d with %d components", product.ProductID, len(links))
	return &common.FormResponse{
		Message: "Product and components saved",
		Product: product,
	}, nil
}

func (s *Service) buildProduct(raw map[string]interface{}) (*Product, error) {
	normalized := payload.Normalize(s.schema, raw)
	if err := s.product.Validate(normalized); err != nil {
		return nil, err
	}

	id := normalized["product_id"].(float64)
	if id != math.Trunc(id) {
		return nil, &common.ValidationError{Fields: []string{"product_id"}, Message: "product_id must be an integer"}
	}

	product := &Product{
		ProductID:   int64(id),
		ProductName: normalized["product_name"].(string),
		Price:       normalized["price"].(float64),
	}
	if v, ok := normalized["furniture_type"].(string); ok {
		product.FurnitureType = &v
	}
	if v, ok := normalized["created_date"].(string); ok {
		created, err := parseDate(v)
		if err != nil {
			return nil, &common.ValidationError{Fields: []string{"created_date"}, Message: "created_date is not a date"}
		}
		product.CreatedDate = &created
	}
	return product, nil
}

// buildLinks drops associations without a component id or a positive
// quantity.
func buildLinks(inputs []ComponentInput) []*ProductComponent {
	links := make([]*ProductComponent, 0, len(inputs))
	for _, in := range inputs {
		id, ok := payload.ToNumber(in.ComponentID)
		if !ok || id == 0 || id != math.Trunc(id) {
			continue
		}
		quantity, ok := payload.ToNumber(in.Quantity)
		if !ok || quantity <= 0 {
			continue
		}
		links = append(links, &ProductComponent{ComponentID: int64(id), Quantity: quantity})
	}
	return links
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func toValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	sort.Strings(fields)
	return &common.ValidationError{
		Fields:  fields,
		Message: "product data and at least one component are required",
	}
}
