package registry

// FurnitureTables returns the table configuration of the furniture
// manufacturing schema served by the admin API.
func FurnitureTables() []TableConfig {
	return []TableConfig{
		{
			Name:        "operations_catalog",
			Label:       "Operations catalog",
			PrimaryKey:  []string{"operation_id"},
			DefaultSort: SortSpec{Field: "operation_id", Direction: Asc},
			Columns:     []string{"operation_id", "operation_name", "hourly_rate", "hours_required", "created_date"},
			Searchable:  []string{"operation_name"},
			Filterable:  []string{"hourly_rate"},
			Schema: map[string]FieldSchema{
				"operation_id":   {Type: TypeNumber, Required: true},
				"operation_name": {Type: TypeString, Required: true},
				"hourly_rate":    {Type: TypeNumber, Required: true},
				"hours_required": {Type: TypeNumber},
				"created_date":   {Type: TypeDate},
			},
		},
		{
			Name:        "materials",
			Label:       "Materials",
			PrimaryKey:  []string{"material_id"},
			DefaultSort: SortSpec{Field: "material_id", Direction: Asc},
			Columns:     []string{"material_id", "material_name", "price", "unit_of_measure", "stock_quantity"},
			Searchable:  []string{"material_name"},
			Filterable:  []string{"unit_of_measure"},
			Schema: map[string]FieldSchema{
				"material_id":     {Type: TypeNumber, Required: true},
				"material_name":   {Type: TypeString, Required: true},
				"price":           {Type: TypeNumber, Required: true},
				"unit_of_measure": {Type: TypeString},
				"stock_quantity":  {Type: TypeNumber},
			},
		},
		{
			Name:        "components",
			Label:       "Components",
			PrimaryKey:  []string{"component_id"},
			DefaultSort: SortSpec{Field: "component_id", Direction: Asc},
			Columns:     []string{"component_id", "component_name", "price", "process_number", "created_date"},
			Searchable:  []string{"component_name"},
			Filterable:  []string{"process_number"},
			Schema: map[string]FieldSchema{
				"component_id":   {Type: TypeNumber, Required: true},
				"component_name": {Type: TypeString, Required: true},
				"price":          {Type: TypeNumber, Required: true},
				"process_number": {Type: TypeNumber, Required: true},
				"created_date":   {Type: TypeDate},
			},
		},
		{
			Name:        "products",
			Label:       "Products",
			PrimaryKey:  []string{"product_id"},
			DefaultSort: SortSpec{Field: "product_id", Direction: Asc},
			Columns:     []string{"product_id", "product_name", "price", "furniture_type", "created_date"},
			Searchable:  []string{"product_name", "furniture_type"},
			Filterable:  []string{"furniture_type"},
			Schema: map[string]FieldSchema{
				"product_id":     {Type: TypeNumber, Required: true},
				"product_name":   {Type: TypeString, Required: true},
				"price":          {Type: TypeNumber, Required: true},
				"furniture_type": {Type: TypeString},
				"created_date":   {Type: TypeDate},
			},
		},
		{
			Name:        "product_components",
			Label:       "Product components",
			PrimaryKey:  []string{"product_id", "component_id"},
			DefaultSort: SortSpec{Field: "product_id", Direction: Asc},
			Columns:     []string{"product_id", "component_id", "quantity"},
			Joins: []Join{
				{
					Type:   JoinLeft,
					Table:  "products",
					On:     []JoinCondition{{Left: "product_components.product_id", Right: "products.product_id"}},
					Select: []string{"product_name"},
				},
				{
					Type:   JoinLeft,
					Table:  "components",
					On:     []JoinCondition{{Left: "product_components.component_id", Right: "components.component_id"}},
					Select: []string{"component_name"},
				},
			},
			Filterable: []string{"product_id"},
			Schema: map[string]FieldSchema{
				"product_id":   {Type: TypeNumber, Required: true},
				"component_id": {Type: TypeNumber, Required: true},
				"quantity":     {Type: TypeNumber, Required: true},
			},
		},
		{
			Name:        "production_process",
			Label:       "Production process",
			PrimaryKey:  []string{"component_id", "material_id", "operation_id"},
			DefaultSort: SortSpec{Field: "component_id", Direction: Asc},
			Columns:     []string{"component_id", "material_id", "material_quantity", "operation_id"},
			Joins: []Join{
				{
					Type:   JoinLeft,
					Table:  "components",
					On:     []JoinCondition{{Left: "production_process.component_id", Right: "components.component_id"}},
					Select: []string{"component_name"},
				},
				{
					Type:   JoinLeft,
					Table:  "materials",
					On:     []JoinCondition{{Left: "production_process.material_id", Right: "materials.material_id"}},
					Select: []string{"material_name"},
				},
				{
					Type:   JoinLeft,
					Table:  "operations_catalog",
					On:     []JoinCondition{{Left: "production_process.operation_id", Right: "operations_catalog.operation_id"}},
					Select: []string{"operation_name"},
				},
			},
			Filterable: []string{"component_id", "material_id", "operation_id"},
			Schema: map[string]FieldSchema{
				"component_id":      {Type: TypeNumber, Required: true},
				"material_id":       {Type: TypeNumber, Required: true},
				"material_quantity": {Type: TypeNumber, Required: true},
				"operation_id":      {Type: TypeNumber, Required: true},
			},
		},
	}
}
