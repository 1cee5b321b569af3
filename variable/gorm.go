package variable

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hupe1980/bpmcore/core"
)

// Row is the table layout of one process variable.
type Row struct {
	ContainerID   int64          `gorm:"primaryKey"`
	ContainerType string         `gorm:"primaryKey;size:32"`
	Name          string         `gorm:"primaryKey;size:255"`
	Value         datatypes.JSON `gorm:"type:text"`
	UpdatedAt     time.Time
}

// TableName implements gorm's tabler.
func (Row) TableName() string { return "bpm_data_instances" }

// GormStore is a VariableStore on top of GORM. Values are stored as JSON.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Row{}); err != nil {
		return nil, fmt.Errorf("migrate data instances: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Get implements core.VariableStore.
func (s *GormStore) Get(ctx context.Context, c core.Container, names []string) (map[string]any, error) {
	out := make(map[string]any, len(names))
	if len(names) == 0 {
		return out, nil
	}
	var rows []Row
	if err := s.db.WithContext(ctx).
		Where("container_id = ? AND container_type = ? AND name IN ?", c.ID, string(c.Type), names).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		var v any
		if len(row.Value) > 0 {
			if err := json.Unmarshal(row.Value, &v); err != nil {
				return nil, fmt.Errorf("decode data [%s]: %w", row.Name, err)
			}
		}
		out[row.Name] = v
	}
	return out, nil
}

// Set implements core.VariableStore.
func (s *GormStore) Set(ctx context.Context, c core.Container, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode data [%s]: %w", name, err)
	}
	row := Row{ContainerID: c.ID, ContainerType: string(c.Type), Name: name, Value: datatypes.JSON(raw)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

var _ core.VariableStore = (*GormStore)(nil)
