// Package lookups serves id/name pairs for populating selection lists.
package lookups

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/registry"
)

// Entity maps a lookup name to the id and display columns of a table.
type Entity struct {
	Name        string
	Table       string
	IDColumn    string
	LabelColumn string
}

func FurnitureEntities() []Entity {
	return []Entity{
		{Name: "components", Table: "components", IDColumn: "component_id", LabelColumn: "component_name"},
		{Name: "materials", Table: "materials", IDColumn: "material_id", LabelColumn: "material_name"},
		{Name: "operations", Table: "operations_catalog", IDColumn: "operation_id", LabelColumn: "operation_name"},
		{Name: "products", Table: "products", IDColumn: "product_id", LabelColumn: "product_name"},
	}
}

type lookup struct {
	table registry.Identifier
	id    registry.Identifier
	label registry.Identifier
}

type Service struct {
	db      *gorm.DB
	lookups map[string]lookup
}

// NewService resolves every entity against reg, so a lookup can only read
// registered tables and columns.
func NewService(db *gorm.DB, reg *registry.Registry, entities ...Entity) (*Service, error) {
	s := &Service{
		db:      db,
		lookups: make(map[string]lookup, len(entities)),
	}

	for _, e := range entities {
		table, err := reg.Table(e.Table)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", e.Name, err)
		}
		id, ok := table.Column(e.IDColumn)
		if !ok {
			return nil, fmt.Errorf("lookup %s: unknown column %s.%s", e.Name, e.Table, e.IDColumn)
		}
		label, ok := table.Column(e.LabelColumn)
		if !ok {
			return nil, fmt.Errorf("lookup %s: unknown column %s.%s", e.Name, e.Table, e.LabelColumn)
		}
		s.lookups[e.Name] = lookup{table: table.Name(), id: id, label: label}
	}
	return s, nil
}

// List returns every row of the entity ordered by its label.
func (s *Service) List(ctx context.Context, entity string) ([]map[string]interface{}, error) {
	l, ok := s.lookups[entity]
	if !ok {
		return nil, &common.ConfigurationError{Kind: "lookup", Name: entity}
	}

	rows := make([]map[string]interface{}, 0)
	err := s.db.WithContext(ctx).
		Table(l.table.String()).
		Select([]string{l.id.String(), l.label.String()}).
		Order(l.label.String()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", entity, err)
	}
	return rows, nil
}
