// Package records implements the generic list/get/create/update/delete
// operations for every registered table.
package records

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/database"
	"github.com/bitechdev/furniture-admin/pkg/keycodec"
	"github.com/bitechdev/furniture-admin/pkg/logger"
	"github.com/bitechdev/furniture-admin/pkg/payload"
	"github.com/bitechdev/furniture-admin/pkg/querybuilder"
	"github.com/bitechdev/furniture-admin/pkg/registry"
	"github.com/bitechdev/furniture-admin/pkg/validation"
)

// ListParams are the raw list options of a request. Names are checked
// against the table's allow-lists before use; anything unknown is ignored.
type ListParams struct {
	Page          int
	Limit         int
	SearchField   string
	SearchTerm    string
	SortField     string
	SortDirection string
	Filters       map[string]string
}

type tableValidators struct {
	create *validation.Validator
	update *validation.Validator
}

// Service runs record operations against a Querier.
type Service struct {
	registry   *registry.Registry
	db         database.Querier
	validators map[string]tableValidators
}

// NewService builds the validators of every registered table up front.
func NewService(reg *registry.Registry, db database.Querier) *Service {
	s := &Service{
		registry:   reg,
		db:         db,
		validators: make(map[string]tableValidators),
	}
	for _, name := range reg.Names() {
		table, err := reg.Table(name)
		if err != nil {
			continue
		}
		schema := table.Schema()
		s.validators[name] = tableValidators{
			create: validation.Build(schema, validation.Options{}),
			update: validation.Build(schema, validation.Options{Partial: true}),
		}
	}
	return s
}

// List returns one page of rows and the total number of matching rows.
func (s *Service) List(ctx context.Context, tableName string, params ListParams) (*common.ListResponse, error) {
	table, err := s.registry.Table(tableName)
	if err != nil {
		return nil, err
	}

	filters, err := resolveFilters(table, params.Filters)
	if err != nil {
		return nil, err
	}

	var search *querybuilder.Search
	if field, ok := table.SearchField(params.SearchField); ok && params.SearchTerm != "" {
		search = &querybuilder.Search{Field: field, Term: params.SearchTerm}
	}

	sort := querybuilder.Sort{}
	if field, ok := table.Column(params.SortField); ok {
		sort.Field = field
		sort.Direction = registry.ParseDirection(params.SortDirection)
	} else {
		sort.Field, sort.Direction = table.DefaultSort()
		if params.SortDirection != "" {
			sort.Direction = registry.ParseDirection(params.SortDirection)
		}
	}

	page, limit := querybuilder.ClampPage(params.Page, params.Limit)
	selectQuery, err := querybuilder.BuildSelect(querybuilder.SelectParams{
		Table:   table.Name(),
		Columns: table.Columns(),
		Filters: filters,
		Search:  search,
		Sort:    sort,
		Page:    page,
		Limit:   limit,
		Joins:   table.Joins(),
	})
	if err != nil {
		return nil, err
	}
	countQuery, err := querybuilder.BuildCount(table.Name(), table.Joins(), selectQuery)
	if err != nil {
		return nil, err
	}

	var (
		rows  []map[string]interface{}
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.db.Query(gctx, selectQuery.Text, selectQuery.Params...)
		if err != nil {
			return fmt.Errorf("list %s: %w", tableName, err)
		}
		return nil
	})
	g.Go(func() error {
		countRows, err := s.db.Query(gctx, countQuery.Text, countQuery.Params...)
		if err != nil {
			return fmt.Errorf("count %s: %w", tableName, err)
		}
		if len(countRows) > 0 {
			total = toInt64(countRows[0]["total"])
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if rows == nil {
		rows = make([]map[string]interface{}, 0)
	}
	logger.Debug("Listed %d of %d rows from %s (page %d, limit %d)", len(rows), total, tableName, page, limit)

	return &common.ListResponse{
		Data: rows,
		Meta: common.ListMeta{Total: total, Page: page, Limit: limit},
	}, nil
}

// Get returns the row identified by token.
func (s *Service) Get(ctx context.Context, tableName, token string) (map[string]interface{}, error) {
	table, key, err := s.resolveKey(tableName, token)
	if err != nil {
		return nil, err
	}

	query, err := querybuilder.BuildGetOne(table.Name(), table.Columns(), table.Joins(), key)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, query.Text, query.Params...)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", tableName, err)
	}
	if len(rows) == 0 {
		return nil, &common.NotFoundError{Table: tableName, Key: token}
	}
	return rows[0], nil
}

// Create validates raw as a full record and inserts it.
func (s *Service) Create(ctx context.Context, tableName string, raw map[string]interface{}) (map[string]interface{}, error) {
	table, err := s.registry.Table(tableName)
	if err != nil {
		return nil, err
	}

	normalized := payload.Normalize(table.Schema(), raw)
	if err := s.validators[tableName].create.Validate(normalized); err != nil {
		return nil, err
	}

	if table.IsCompositeKey() {
		if key, complete := keycodec.FromPayload(table, normalized); complete {
			if err := s.checkDuplicate(ctx, table, key); err != nil {
				return nil, err
			}
		}
	}

	query, err := querybuilder.BuildInsert(table.Name(), assignments(table, normalized))
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, query.Text, query.Params...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, &common.ConflictError{Table: tableName, Key: keycodec.EncodeRow(table, normalized)}
		}
		return nil, fmt.Errorf("create %s: %w", tableName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create %s: no row returned", tableName)
	}

	logger.Info("Created record %s in %s", keycodec.EncodeRow(table, rows[0]), tableName)
	return rows[0], nil
}

// Update applies the fields present in raw to the row identified by token.
func (s *Service) Update(ctx context.Context, tableName, token string, raw map[string]interface{}) (map[string]interface{}, error) {
	table, key, err := s.resolveKey(tableName, token)
	if err != nil {
		return nil, err
	}

	normalized := payload.Normalize(table.Schema(), raw)
	if err := s.validators[tableName].update.Validate(normalized); err != nil {
		return nil, err
	}
	if len(normalized) == 0 {
		return nil, common.ErrNothingToUpdate
	}

	query, err := querybuilder.BuildUpdate(table.Name(), assignments(table, normalized), key)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, query.Text, query.Params...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, &common.ConflictError{Table: tableName, Key: token}
		}
		return nil, fmt.Errorf("update %s: %w", tableName, err)
	}
	if len(rows) == 0 {
		return nil, &common.NotFoundError{Table: tableName, Key: token}
	}

	logger.Info("Updated record %s in %s", token, tableName)
	return rows[0], nil
}

// Delete removes the row identified by token.
func (s *Service) Delete(ctx context.Context, tableName, token string) error {
	table, key, err := s.resolveKey(tableName, token)
	if err != nil {
		return err
	}

	query, err := querybuilder.BuildDelete(table.Name(), key)
	if err != nil {
		return err
	}
	affected, err := s.db.Exec(ctx, query.Text, query.Params...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", tableName, err)
	}
	if affected == 0 {
		return &common.NotFoundError{Table: tableName, Key: token}
	}

	logger.Info("Deleted record %s from %s", token, tableName)
	return nil
}

func (s *Service) resolveKey(tableName, token string) (*registry.Table, keycodec.KeyFilter, error) {
	table, err := s.registry.Table(tableName)
	if err != nil {
		return nil, nil, err
	}
	key, err := keycodec.Decode(table, token)
	if err != nil {
		return nil, nil, err
	}
	return table, key, nil
}

func (s *Service) checkDuplicate(ctx context.Context, table *registry.Table, key keycodec.KeyFilter) error {
	query, err := querybuilder.BuildExists(table.Name(), key)
	if err != nil {
		return err
	}
	rows, err := s.db.Query(ctx, query.Text, query.Params...)
	if err != nil {
		return fmt.Errorf("check duplicate in %s: %w", table.Name(), err)
	}
	if len(rows) > 0 {
		return &common.ConflictError{Table: table.Name().String(), Key: encodeKey(key)}
	}
	return nil
}

// resolveFilters keeps the filterable columns with a non-empty value and
// converts each value to its schema type.
func resolveFilters(table *registry.Table, raw map[string]string) ([]querybuilder.Filter, error) {
	var (
		filters []querybuilder.Filter
		invalid []string
	)
	for _, field := range table.Filterable() {
		value, ok := raw[field.String()]
		if !ok || value == "" {
			continue
		}

		schema, ok := table.Field(field.String())
		if !ok {
			filters = append(filters, querybuilder.Filter{Field: field, Value: value})
			continue
		}
		coerced, ok := payload.Coerce(schema, value)
		if !ok {
			invalid = append(invalid, field.String())
			continue
		}
		filters = append(filters, querybuilder.Filter{Field: field, Value: coerced})
	}

	if len(invalid) > 0 {
		return nil, &common.ValidationError{Fields: invalid, Message: "invalid filter values: " + strings.Join(invalid, ", ")}
	}
	return filters, nil
}

// assignments orders the normalized payload by column declaration order.
func assignments(table *registry.Table, normalized map[string]interface{}) []querybuilder.Assignment {
	out := make([]querybuilder.Assignment, 0, len(normalized))
	for _, col := range table.Columns() {
		if value, ok := normalized[col.String()]; ok {
			out = append(out, querybuilder.Assignment{Column: col, Value: value})
		}
	}
	return out
}

func encodeKey(key keycodec.KeyFilter) string {
	fields := make([]string, len(key))
	for i, part := range key {
		fields[i] = part.Field.String()
	}
	return keycodec.Encode(fields, key.Map())
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
