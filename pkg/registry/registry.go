package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bitechdev/furniture-admin/pkg/common"
)

// Registry maps table names to their validated configuration. It is built
// once at startup and never modified afterwards, so it needs no locking.
type Registry struct {
	tables map[string]*Table
}

// New validates every config and builds the registry. Any config that would
// let an unchecked identifier reach a query is rejected here.
func New(configs ...TableConfig) (*Registry, error) {
	r := &Registry{
		tables: make(map[string]*Table, len(configs)),
	}

	for _, cfg := range configs {
		if _, exists := r.tables[cfg.Name]; exists {
			return nil, fmt.Errorf("table %s already registered", cfg.Name)
		}
		table, err := newTable(cfg)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", cfg.Name, err)
		}
		r.tables[cfg.Name] = table
	}

	// Join targets that are registered tables must expose the joined columns.
	for name, table := range r.tables {
		for _, join := range table.joins {
			target, ok := r.tables[join.Table.String()]
			if !ok {
				continue
			}
			for _, col := range join.Select {
				if _, ok := target.Column(col.String()); !ok {
					return nil, fmt.Errorf("table %s: join %s selects unknown column %s", name, join.Table, col)
				}
			}
			for _, cond := range join.On {
				if _, ok := target.Column(cond.RightColumn.String()); !ok {
					return nil, fmt.Errorf("table %s: join %s references unknown column %s", name, join.Table, cond.RightColumn)
				}
			}
		}
	}

	return r, nil
}

// MustNew is New for static configuration known to be valid.
func MustNew(configs ...TableConfig) *Registry {
	r, err := New(configs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Table returns the configuration for name or a ConfigurationError.
func (r *Registry) Table(name string) (*Table, error) {
	table, ok := r.tables[name]
	if !ok {
		return nil, &common.ConfigurationError{Kind: "table", Name: name}
	}
	return table, nil
}

// Names returns the registered table names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newTable(cfg TableConfig) (*Table, error) {
	if !isValidIdentifier(cfg.Name) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Name)
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("no columns")
	}
	if len(cfg.PrimaryKey) == 0 {
		return nil, fmt.Errorf("no primary key")
	}

	t := &Table{
		name:        Identifier{name: cfg.Name},
		label:       cfg.Label,
		columnIndex: make(map[string]Identifier, len(cfg.Columns)),
		searchable:  make(map[string]Identifier, len(cfg.Searchable)),
		schema:      make(map[string]FieldSchema, len(cfg.Schema)),
	}

	for _, col := range cfg.Columns {
		if !isValidIdentifier(col) {
			return nil, fmt.Errorf("invalid column name %q", col)
		}
		if _, dup := t.columnIndex[col]; dup {
			return nil, fmt.Errorf("duplicate column %s", col)
		}
		id := Identifier{name: col}
		t.columns = append(t.columns, id)
		t.columnIndex[col] = id
	}

	lookup := func(kind, name string) (Identifier, error) {
		id, ok := t.columnIndex[name]
		if !ok {
			return Identifier{}, fmt.Errorf("%s field %s is not a column", kind, name)
		}
		return id, nil
	}

	for _, field := range cfg.PrimaryKey {
		id, err := lookup("primary key", field)
		if err != nil {
			return nil, err
		}
		t.primaryKey = append(t.primaryKey, id)
	}
	for _, field := range cfg.Searchable {
		id, err := lookup("searchable", field)
		if err != nil {
			return nil, err
		}
		t.searchable[field] = id
	}
	for _, field := range cfg.Filterable {
		id, err := lookup("filterable", field)
		if err != nil {
			return nil, err
		}
		t.filterable = append(t.filterable, id)
	}

	sortField := cfg.DefaultSort.Field
	if sortField == "" {
		sortField = cfg.PrimaryKey[0]
	}
	id, err := lookup("default sort", sortField)
	if err != nil {
		return nil, err
	}
	t.defaultSort = id
	t.defaultDir = ParseDirection(string(cfg.DefaultSort.Direction))

	for field, fs := range cfg.Schema {
		if _, err := lookup("schema", field); err != nil {
			return nil, err
		}
		switch fs.Type {
		case TypeNumber, TypeString, TypeDate:
		default:
			return nil, fmt.Errorf("schema field %s has unknown type %q", field, fs.Type)
		}
		t.schema[field] = fs
	}

	for _, join := range cfg.Joins {
		resolved, err := resolveJoin(t, join)
		if err != nil {
			return nil, err
		}
		t.joins = append(t.joins, resolved)
	}

	return t, nil
}

func resolveJoin(base *Table, join Join) (ResolvedJoin, error) {
	if !isValidIdentifier(join.Table) {
		return ResolvedJoin{}, fmt.Errorf("invalid join table %q", join.Table)
	}
	if join.Table == base.name.name {
		return ResolvedJoin{}, fmt.Errorf("self join on %s is not supported", join.Table)
	}
	if len(join.On) == 0 {
		return ResolvedJoin{}, fmt.Errorf("join %s has no conditions", join.Table)
	}

	joinType := join.Type
	switch joinType {
	case "":
		joinType = JoinLeft
	case JoinLeft, JoinInner, JoinRight:
	default:
		return ResolvedJoin{}, fmt.Errorf("join %s has unknown type %q", join.Table, join.Type)
	}

	resolved := ResolvedJoin{
		Type:  joinType,
		Table: Identifier{name: join.Table},
	}

	for _, cond := range join.On {
		leftTable, leftCol, ok := splitQualified(cond.Left)
		if !ok || leftTable != base.name.name {
			return ResolvedJoin{}, fmt.Errorf("join %s: left side %q must be a %s column", join.Table, cond.Left, base.name)
		}
		if _, ok := base.columnIndex[leftCol]; !ok {
			return ResolvedJoin{}, fmt.Errorf("join %s: left side %q is not a column", join.Table, cond.Left)
		}
		rightTable, rightCol, ok := splitQualified(cond.Right)
		if !ok || rightTable != join.Table {
			return ResolvedJoin{}, fmt.Errorf("join %s: right side %q must be a %s column", join.Table, cond.Right, join.Table)
		}
		resolved.On = append(resolved.On, ResolvedCondition{
			LeftTable:   base.name,
			LeftColumn:  base.columnIndex[leftCol],
			RightTable:  resolved.Table,
			RightColumn: Identifier{name: rightCol},
		})
	}

	for _, col := range join.Select {
		if !isValidIdentifier(col) {
			return ResolvedJoin{}, fmt.Errorf("join %s: invalid column %q", join.Table, col)
		}
		resolved.Select = append(resolved.Select, Identifier{name: col})
	}

	return resolved, nil
}

// splitQualified splits "table.column", requiring both parts to be valid
// identifiers.
func splitQualified(s string) (string, string, bool) {
	table, column, found := strings.Cut(s, ".")
	if !found || !isValidIdentifier(table) || !isValidIdentifier(column) {
		return "", "", false
	}
	return table, column, true
}
