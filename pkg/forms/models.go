package forms

import (
	"time"

	"github.com/uptrace/bun"
)

// Product is the row written by the product-with-components form.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ProductID     int64      `bun:"product_id,pk" json:"product_id"`
	ProductName   string     `bun:"product_name,notnull" json:"product_name"`
	Price         float64    `bun:"price,notnull" json:"price"`
	FurnitureType *string    `bun:"furniture_type" json:"furniture_type"`
	CreatedDate   *time.Time `bun:"created_date" json:"created_date"`
}

// ProductComponent links a product to one of its components.
type ProductComponent struct {
	bun.BaseModel `bun:"table:product_components"`

	ProductID   int64   `bun:"product_id,pk" json:"product_id"`
	ComponentID int64   `bun:"component_id,pk" json:"component_id"`
	Quantity    float64 `bun:"quantity,notnull" json:"quantity"`
}

// ProductForm is the request body of the composite form.
type ProductForm struct {
	Product    map[string]interface{} `json:"product" validate:"required,min=1"`
	Components []ComponentInput       `json:"components" validate:"required,min=1"`
}

// ComponentInput is one requested association. Values are left untyped so
// string and numeric input are both accepted.
type ComponentInput struct {
	ComponentID interface{} `json:"component_id"`
	Quantity    interface{} `json:"quantity"`
}
