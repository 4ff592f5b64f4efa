package registry

// ResolvedCondition is a join condition whose four identifiers passed the
// registry checks.
type ResolvedCondition struct {
	LeftTable   Identifier
	LeftColumn  Identifier
	RightTable  Identifier
	RightColumn Identifier
}

// ResolvedJoin is the validated form of a Join.
type ResolvedJoin struct {
	Type   JoinType
	Table  Identifier
	On     []ResolvedCondition
	Select []Identifier
}

// Table is the validated, read-only view of a TableConfig. Every name it
// hands out is an Identifier.
type Table struct {
	name        Identifier
	label       string
	primaryKey  []Identifier
	columns     []Identifier
	columnIndex map[string]Identifier
	searchable  map[string]Identifier
	filterable  []Identifier
	defaultSort Identifier
	defaultDir  SortDirection
	joins       []ResolvedJoin
	schema      map[string]FieldSchema
}

func (t *Table) Name() Identifier {
	return t.name
}

func (t *Table) Label() string {
	return t.label
}

// PrimaryKey returns the key fields in token order.
func (t *Table) PrimaryKey() []Identifier {
	return append([]Identifier(nil), t.primaryKey...)
}

func (t *Table) IsCompositeKey() bool {
	return len(t.primaryKey) > 1
}

// Columns returns the select allow-list in declaration order.
func (t *Table) Columns() []Identifier {
	return append([]Identifier(nil), t.columns...)
}

// Column checks name against the column allow-list.
func (t *Table) Column(name string) (Identifier, bool) {
	id, ok := t.columnIndex[name]
	return id, ok
}

// SearchField checks name against the searchable allow-list.
func (t *Table) SearchField(name string) (Identifier, bool) {
	id, ok := t.searchable[name]
	return id, ok
}

func (t *Table) Filterable() []Identifier {
	return append([]Identifier(nil), t.filterable...)
}

func (t *Table) DefaultSort() (Identifier, SortDirection) {
	return t.defaultSort, t.defaultDir
}

func (t *Table) Joins() []ResolvedJoin {
	return append([]ResolvedJoin(nil), t.joins...)
}

// Schema returns a copy of the field type map.
func (t *Table) Schema() map[string]FieldSchema {
	out := make(map[string]FieldSchema, len(t.schema))
	for k, v := range t.schema {
		out[k] = v
	}
	return out
}

// Field returns the schema entry of a column.
func (t *Table) Field(name string) (FieldSchema, bool) {
	f, ok := t.schema[name]
	return f, ok
}
