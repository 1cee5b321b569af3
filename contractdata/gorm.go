package contractdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hupe1980/bpmcore/core"
)

// Row is the table layout of one archived input.
type Row struct {
	ID            string         `gorm:"primaryKey;size:36"`
	ContainerID   int64          `gorm:"uniqueIndex:idx_contract_data_name;not null"`
	ContainerType string         `gorm:"uniqueIndex:idx_contract_data_name;size:32;not null"`
	Name          string         `gorm:"uniqueIndex:idx_contract_data_name;size:255;not null"`
	Value         datatypes.JSON `gorm:"type:text"`
	CreatedAt     time.Time
}

// TableName implements gorm's tabler.
func (Row) TableName() string { return "bpm_contract_data" }

// GormStore is a ContractDataStore on top of GORM. Values are stored as
// JSON, so numbers read back as float64.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Row{}); err != nil {
		return nil, fmt.Errorf("migrate contract data: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Save implements core.ContractDataStore. All values are written in one
// transaction; earlier records with the same name are replaced.
func (s *GormStore) Save(ctx context.Context, c core.Container, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			raw, err := json.Marshal(values[name])
			if err != nil {
				return fmt.Errorf("encode contract data [%s]: %w", name, err)
			}
			if err := tx.Where("container_id = ? AND container_type = ? AND name = ?", c.ID, string(c.Type), name).
				Delete(&Row{}).Error; err != nil {
				return err
			}
			row := Row{
				ID:            uuid.NewString(),
				ContainerID:   c.ID,
				ContainerType: string(c.Type),
				Name:          name,
				Value:         datatypes.JSON(raw),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Get implements core.ContractDataStore.
func (s *GormStore) Get(ctx context.Context, c core.Container, name string) (*core.ContractDataRecord, error) {
	var row Row
	err := s.db.WithContext(ctx).
		Where("container_id = ? AND container_type = ? AND name = ?", c.ID, string(c.Type), name).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("contract data [%s]: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toRecord(c, row)
}

// List implements core.ContractDataStore. Records are sorted by name.
func (s *GormStore) List(ctx context.Context, c core.Container) ([]*core.ContractDataRecord, error) {
	var rows []Row
	if err := s.db.WithContext(ctx).
		Where("container_id = ? AND container_type = ?", c.ID, string(c.Type)).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*core.ContractDataRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toRecord(c, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func toRecord(c core.Container, row Row) (*core.ContractDataRecord, error) {
	rec := &core.ContractDataRecord{ID: row.ID, Container: c, Name: row.Name, Created: row.CreatedAt}
	if len(row.Value) > 0 {
		if err := json.Unmarshal(row.Value, &rec.Value); err != nil {
			return nil, fmt.Errorf("decode contract data [%s]: %w", row.Name, err)
		}
	}
	return rec, nil
}

var _ core.ContractDataStore = (*GormStore)(nil)
