// Package querybuilder turns validated identifiers and values into
// parameterized Postgres statements. Every function is pure: nothing here
// touches a connection, and no raw request string ever reaches a statement
// because all names arrive as registry.Identifier.
package querybuilder

import (
	"fmt"
	"math"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/keycodec"
	"github.com/bitechdev/furniture-admin/pkg/registry"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit within int for every allowed limit.
	MaxPage = math.MaxInt / MaxLimit
)

// psql numbers placeholders once, over the whole statement, so indexes are
// 1-based and contiguous no matter how clauses were combined.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Fragment is a finished statement. WhereClause and WhereParams are only set
// by BuildSelect and carry the filter part on its own, already numbered from
// $1, for the matching count query.
type Fragment struct {
	Text        string
	Params      []interface{}
	WhereClause string
	WhereParams []interface{}
}

// Filter is an equality condition on a filterable column.
type Filter struct {
	Field registry.Identifier
	Value interface{}
}

// Search is a case-insensitive substring match on a searchable column.
type Search struct {
	Field registry.Identifier
	Term  string
}

type Sort struct {
	Field     registry.Identifier
	Direction registry.SortDirection
}

// Assignment is one column value of an insert or update.
type Assignment struct {
	Column registry.Identifier
	Value  interface{}
}

type SelectParams struct {
	Table   registry.Identifier
	Columns []registry.Identifier
	Filters []Filter
	Search  *Search
	Sort    Sort
	Page    int
	Limit   int
	Joins   []registry.ResolvedJoin
}

// ClampPage applies the pagination bounds: a zero limit means DefaultLimit,
// the limit is kept within [1, MaxLimit] and page within [1, MaxPage].
func ClampPage(page, limit int) (int, int) {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	return page, limit
}

// BuildWhere ANDs one equality clause per filter (nil and empty-string values
// are skipped) and one ILIKE clause for search. Columns are prefixed with
// qualifier unless it is zero. An empty result means no WHERE at all.
func BuildWhere(filters []Filter, search *Search, qualifier registry.Identifier) (Fragment, error) {
	cond := whereConditions(filters, search, qualifier)
	if len(cond) == 0 {
		return Fragment{}, nil
	}

	text, params, err := cond.ToSql()
	if err != nil {
		return Fragment{}, err
	}
	text, err = sq.Dollar.ReplacePlaceholders(text)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{
		Text:        " WHERE " + text,
		Params:      params,
		WhereClause: text,
		WhereParams: params,
	}, nil
}

func whereConditions(filters []Filter, search *Search, qualifier registry.Identifier) sq.And {
	var cond sq.And
	for _, f := range filters {
		if f.Field.IsZero() || isBlank(f.Value) {
			continue
		}
		cond = append(cond, sq.Eq{f.Field.Qualified(qualifier): f.Value})
	}
	if search != nil && !search.Field.IsZero() && search.Term != "" {
		cond = append(cond, sq.ILike{search.Field.Qualified(qualifier): "%" + search.Term + "%"})
	}
	return cond
}

// BuildSelect builds the paginated list statement. Sort is applied only when
// its field is one of Columns; resolving a default sort is the caller's job.
func BuildSelect(p SelectParams) (Fragment, error) {
	if p.Table.IsZero() {
		return Fragment{}, fmt.Errorf("select: table is required")
	}
	if len(p.Columns) == 0 {
		return Fragment{}, fmt.Errorf("select %s: no columns", p.Table)
	}

	where, err := BuildWhere(p.Filters, p.Search, p.Table)
	if err != nil {
		return Fragment{}, err
	}

	q := psql.Select(selectColumns(p.Table, p.Columns, p.Joins)...).From(p.Table.String())
	q = withJoins(q, p.Joins)
	if where.WhereClause != "" {
		q = q.Where(whereConditions(p.Filters, p.Search, p.Table))
	}
	if order := orderBy(p.Table, p.Columns, p.Sort); order != "" {
		q = q.OrderBy(order)
	}

	page, limit := ClampPage(p.Page, p.Limit)
	q = q.Suffix("LIMIT ? OFFSET ?", limit, (page-1)*limit)

	text, params, err := q.ToSql()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{
		Text:        text,
		Params:      params,
		WhereClause: where.WhereClause,
		WhereParams: where.WhereParams,
	}, nil
}

// BuildCount counts the rows a BuildSelect fragment would page over. The
// joins are repeated so the count matches the listed rows.
func BuildCount(table registry.Identifier, joins []registry.ResolvedJoin, list Fragment) (Fragment, error) {
	q := psql.Select("COUNT(*) AS total").From(table.String())
	q = withJoins(q, joins)
	if list.WhereClause != "" {
		// Already numbered from $1 and the count has no other parameters.
		q = q.Where(sq.Expr(list.WhereClause, list.WhereParams...))
	}

	text, params, err := q.ToSql()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Text: text, Params: params}, nil
}

// BuildGetOne selects one record by full key equality, with the same
// columns and joins as the list.
func BuildGetOne(table registry.Identifier, columns []registry.Identifier, joins []registry.ResolvedJoin, key keycodec.KeyFilter) (Fragment, error) {
	if len(key) == 0 {
		return Fragment{}, fmt.Errorf("get %s: empty key", table)
	}

	q := psql.Select(selectColumns(table, columns, joins)...).From(table.String())
	q = withJoins(q, joins).Where(keyCondition(key, table))

	text, params, err := q.ToSql()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Text: text, Params: params}, nil
}

// BuildInsert inserts values in the given assignment order and returns the
// stored row.
func BuildInsert(table registry.Identifier, values []Assignment) (Fragment, error) {
	if len(values) == 0 {
		return Fragment{}, fmt.Errorf("insert %s: no values", table)
	}

	columns := make([]string, len(values))
	params := make([]interface{}, len(values))
	for i, a := range values {
		columns[i] = a.Column.String()
		params[i] = a.Value
	}

	text, args, err := psql.Insert(table.String()).
		Columns(columns...).
		Values(params...).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Text: text, Params: args}, nil
}

// BuildUpdate sets values (params 1..N) on the row matching key (params
// N+1..N+M) and returns the updated row.
func BuildUpdate(table registry.Identifier, values []Assignment, key keycodec.KeyFilter) (Fragment, error) {
	if len(values) == 0 {
		return Fragment{}, common.ErrNothingToUpdate
	}
	if len(key) == 0 {
		return Fragment{}, fmt.Errorf("update %s: empty key", table)
	}

	q := psql.Update(table.String())
	for _, a := range values {
		q = q.Set(a.Column.String(), a.Value)
	}

	text, params, err := q.Where(keyCondition(key, registry.Identifier{})).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Text: text, Params: params}, nil
}

// BuildDelete deletes the row matching key. There is no RETURNING: callers
// detect a missing row by the affected count.
func BuildDelete(table registry.Identifier, key keycodec.KeyFilter) (Fragment, error) {
	if len(key) == 0 {
		return Fragment{}, fmt.Errorf("delete %s: empty key", table)
	}

	text, params, err := psql.Delete(table.String()).Where(keyCondition(key, registry.Identifier{})).ToSql()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Text: text, Params: params}, nil
}

// BuildExists probes for a row with exactly key.
func BuildExists(table registry.Identifier, key keycodec.KeyFilter) (Fragment, error) {
	if len(key) == 0 {
		return Fragment{}, fmt.Errorf("exists %s: empty key", table)
	}

	text, params, err := psql.Select("1").
		From(table.String()).
		Where(keyCondition(key, registry.Identifier{})).
		Suffix("LIMIT 1").
		ToSql()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Text: text, Params: params}, nil
}

func selectColumns(table registry.Identifier, columns []registry.Identifier, joins []registry.ResolvedJoin) []string {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		out = append(out, col.Qualified(table))
	}
	for _, join := range joins {
		for _, col := range join.Select {
			out = append(out, col.Qualified(join.Table)+" AS "+col.Alias(join.Table))
		}
	}
	return out
}

func withJoins(q sq.SelectBuilder, joins []registry.ResolvedJoin) sq.SelectBuilder {
	for _, join := range joins {
		joinType := join.Type
		if joinType == "" {
			joinType = registry.JoinLeft
		}

		conds := make([]string, len(join.On))
		for i, c := range join.On {
			conds[i] = c.LeftColumn.Qualified(c.LeftTable) + " = " + c.RightColumn.Qualified(c.RightTable)
		}
		q = q.JoinClause(fmt.Sprintf("%s JOIN %s ON %s", joinType, join.Table, strings.Join(conds, " AND ")))
	}
	return q
}

func orderBy(table registry.Identifier, columns []registry.Identifier, s Sort) string {
	if s.Field.IsZero() {
		return ""
	}
	for _, col := range columns {
		if col == s.Field {
			dir := "ASC"
			if s.Direction == registry.Desc {
				dir = "DESC"
			}
			return col.Qualified(table) + " " + dir
		}
	}
	return ""
}

// keyCondition keeps key order; a single sq.Eq map would sort its columns.
func keyCondition(key keycodec.KeyFilter, qualifier registry.Identifier) sq.And {
	cond := make(sq.And, len(key))
	for i, part := range key {
		cond[i] = sq.Eq{part.Field.Qualified(qualifier): part.Value}
	}
	return cond
}

func isBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	}
	return false
}
