// Package reports serves the fixed read-only reports over the reporting
// views. Reports are unpaginated, so summaries computed over the returned
// rows cover the whole filtered set.
package reports

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/logger"
	"github.com/bitechdev/furniture-admin/pkg/payload"
	"github.com/bitechdev/furniture-admin/pkg/registry"
)

const (
	sortFieldParam     = "sortField"
	sortDirectionParam = "sortDirection"

	// Reports sort descending unless the request says otherwise.
	defaultDirection = registry.Desc
)

// Service runs report definitions on gorm.
type Service struct {
	db          *gorm.DB
	definitions map[string]Definition
}

func NewService(db *gorm.DB, defs ...Definition) *Service {
	s := &Service{
		db:          db,
		definitions: make(map[string]Definition, len(defs)),
	}
	for _, def := range defs {
		s.definitions[def.Name] = def
	}
	return s
}

// Names returns the available report names, sorted.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.definitions))
	for name := range s.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named report with the raw query parameters.
func (s *Service) Run(ctx context.Context, name string, params map[string]string) (*common.ReportResponse, error) {
	def, ok := s.definitions[name]
	if !ok {
		return nil, &common.ConfigurationError{Kind: "report", Name: name}
	}

	var rows []map[string]interface{}
	query, err := s.query(s.db.WithContext(ctx), &def, params)
	if err != nil {
		return nil, err
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("report %s: %w", name, err)
	}
	if rows == nil {
		rows = make([]map[string]interface{}, 0)
	}

	summary := map[string]interface{}{}
	if def.Summary != nil {
		summary = def.Summary(rows)
	}

	logger.Debug("Report %s returned %d rows", name, len(rows))
	return &common.ReportResponse{Data: rows, Summary: summary}, nil
}

func (s *Service) query(tx *gorm.DB, def *Definition, params map[string]string) (*gorm.DB, error) {
	threshold := def.Threshold.Default
	if raw := strings.TrimSpace(params[def.Threshold.Param]); raw != "" {
		n, ok := payload.ToNumber(raw)
		if !ok {
			return nil, &common.ValidationError{
				Fields:  []string{def.Threshold.Param},
				Message: fmt.Sprintf("%s must be a number", def.Threshold.Param),
			}
		}
		threshold = n
	}

	tx = tx.Table(def.View).Where(def.Threshold.Column+" >= ?", threshold)

	if def.Equality != nil {
		if value := params[def.Equality.Param]; value != "" {
			tx = tx.Where(def.Equality.Column+" = ?", value)
		}
	}

	sortField := params[sortFieldParam]
	if sortField == "" {
		sortField = def.DefaultSort
	}
	if def.allowsSort(sortField) {
		direction := defaultDirection
		if raw, ok := params[sortDirectionParam]; ok {
			direction = registry.ParseDirection(raw)
		}
		tx = tx.Order(sortField + " " + strings.ToUpper(string(direction)))
	}

	return tx, nil
}

func sumColumn(rows []map[string]interface{}, column string) float64 {
	var total float64
	for _, row := range rows {
		total += toFloat(row[column])
	}
	return total
}

// toFloat reads numeric driver values; Postgres NUMERIC arrives as text.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case []byte:
		f, _ := strconv.ParseFloat(string(n), 64)
		return f
	default:
		f, _ := payload.ToNumber(n)
		return f
	}
}
