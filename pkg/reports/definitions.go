package reports

// Threshold is the minimum filter every report applies: Column >= value of
// the Param query parameter, or Default when it is absent.
type Threshold struct {
	Param   string
	Column  string
	Default float64
}

// Equality is an optional exact-match filter.
type Equality struct {
	Param  string
	Column string
}

// SummaryFunc aggregates the returned rows.
type SummaryFunc func(rows []map[string]interface{}) map[string]interface{}

// Definition describes one parameterized report over a reporting view.
// Column names are fixed here and never taken from a request.
type Definition struct {
	Name        string
	View        string
	Threshold   Threshold
	Equality    *Equality
	SortFields  []string
	DefaultSort string
	Summary     SummaryFunc
}

func (d *Definition) allowsSort(field string) bool {
	for _, f := range d.SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// FurnitureReports returns the reports served over the furniture views.
func FurnitureReports() []Definition {
	return []Definition{
		{
			Name:        "expensive-products",
			View:        "expensive_products",
			Threshold:   Threshold{Param: "minPrice", Column: "price", Default: 50000},
			Equality:    &Equality{Param: "furnitureType", Column: "furniture_type"},
			SortFields:  []string{"price", "product_name"},
			DefaultSort: "price",
			Summary: func(rows []map[string]interface{}) map[string]interface{} {
				return map[string]interface{}{
					"total_price": sumColumn(rows, "price"),
					"count":       len(rows),
				}
			},
		},
		{
			Name:        "component-usage",
			View:        "full_component_info",
			Threshold:   Threshold{Param: "minProducts", Column: "product_count", Default: 1},
			SortFields:  []string{"product_count", "component_name"},
			DefaultSort: "product_count",
			Summary: func(rows []map[string]interface{}) map[string]interface{} {
				return map[string]interface{}{
					"total_usage": sumColumn(rows, "product_count"),
				}
			},
		},
		{
			Name:        "sales-profit",
			View:        "sales_profit",
			Threshold:   Threshold{Param: "minProfit", Column: "profit", Default: 0},
			SortFields:  []string{"profit", "profitability_percent", "product_name"},
			DefaultSort: "profitability_percent",
			Summary: func(rows []map[string]interface{}) map[string]interface{} {
				return map[string]interface{}{
					"total_profit":  sumColumn(rows, "profit"),
					"total_revenue": sumColumn(rows, "selling_price"),
				}
			},
		},
	}
}
