package registry

import "strings"

// DataType is the declared type of a field, used by the payload normalizer
// and the validation schema builder.
type DataType string

const (
	TypeNumber DataType = "number"
	TypeString DataType = "string"
	TypeDate   DataType = "date"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// ParseDirection returns Desc only for an explicit "desc" (any case).
func ParseDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

type JoinType string

const (
	JoinLeft  JoinType = "LEFT"
	JoinInner JoinType = "INNER"
	JoinRight JoinType = "RIGHT"
)

type FieldSchema struct {
	Type     DataType
	Required bool
}

type SortSpec struct {
	Field     string
	Direction SortDirection
}

// JoinCondition equates a base-table column with a join-table column. Both
// sides are qualified: "product_components.product_id".
type JoinCondition struct {
	Left  string
	Right string
}

// Join describes a read-only relation used to enrich list queries with
// display columns of another table. Joins never apply to writes.
type Join struct {
	Type   JoinType
	Table  string
	On     []JoinCondition
	Select []string
}

// TableConfig is the declarative description of one table. Order matters in
// PrimaryKey (key token layout) and Columns (select list, insert columns).
type TableConfig struct {
	Name        string
	Label       string
	PrimaryKey  []string
	Columns     []string
	Searchable  []string
	Filterable  []string
	DefaultSort SortSpec
	Joins       []Join
	Schema      map[string]FieldSchema
}
