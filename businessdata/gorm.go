package businessdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hupe1980/bpmcore/core"
)

// ObjectRow is the table layout of a business object.
type ObjectRow struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	Type       string         `gorm:"index;not null"`
	Attributes datatypes.JSON `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName implements gorm's tabler.
func (ObjectRow) TableName() string { return "bpm_business_objects" }

// RefRow is the table layout of a container's business data reference.
type RefRow struct {
	ContainerID   int64          `gorm:"primaryKey"`
	ContainerType string         `gorm:"primaryKey;size:32"`
	Name          string         `gorm:"primaryKey;size:255"`
	Multiple      bool           `gorm:"not null;default:false"`
	IDs           datatypes.JSON `gorm:"column:ids;type:text"`
	UpdatedAt     time.Time
}

// TableName implements gorm's tabler.
func (RefRow) TableName() string { return "bpm_business_data_refs" }

// GormRepository is a BusinessDataRepository on top of GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository migrates the schema and returns the repository.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&ObjectRow{}, &RefRow{}); err != nil {
		return nil, fmt.Errorf("migrate business data: %w", err)
	}
	return &GormRepository{db: db}, nil
}

// FindRefs implements core.BusinessDataRepository.
func (r *GormRepository) FindRefs(ctx context.Context, c core.Container, names []string) (map[string]*core.BusinessDataRef, error) {
	out := make(map[string]*core.BusinessDataRef, len(names))
	if len(names) == 0 {
		return out, nil
	}
	var rows []RefRow
	if err := r.db.WithContext(ctx).
		Where("container_id = ? AND container_type = ? AND name IN ?", c.ID, string(c.Type), names).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		ref := &core.BusinessDataRef{Name: row.Name, Multiple: row.Multiple}
		if len(row.IDs) > 0 {
			if err := json.Unmarshal(row.IDs, &ref.IDs); err != nil {
				return nil, fmt.Errorf("decode ref %s: %w", row.Name, err)
			}
		}
		out[row.Name] = ref
	}
	return out, nil
}

// FindByIDs implements core.BusinessDataRepository.
func (r *GormRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*core.BusinessObject, error) {
	out := make(map[int64]*core.BusinessObject, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ObjectRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		obj := core.NewBusinessObject(row.Type, nil)
		obj.PersistenceID = row.ID
		if len(row.Attributes) > 0 {
			if err := json.Unmarshal(row.Attributes, &obj.Attributes); err != nil {
				return nil, fmt.Errorf("decode business object %d: %w", row.ID, err)
			}
		}
		out[row.ID] = obj
	}
	return out, nil
}

// Save implements core.BusinessDataRepository.
func (r *GormRepository) Save(ctx context.Context, obj *core.BusinessObject) error {
	attrs, err := json.Marshal(obj.Attributes)
	if err != nil {
		return fmt.Errorf("encode business object: %w", err)
	}
	row := ObjectRow{ID: obj.PersistenceID, Type: obj.Type, Attributes: datatypes.JSON(attrs)}
	db := r.db.WithContext(ctx)
	if row.ID == 0 {
		if err := db.Create(&row).Error; err != nil {
			return err
		}
		obj.PersistenceID = row.ID
		return nil
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// Delete implements core.BusinessDataRepository.
func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&ObjectRow{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("business object %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// SetRef implements core.BusinessDataRepository.
func (r *GormRepository) SetRef(ctx context.Context, c core.Container, ref *core.BusinessDataRef) error {
	ids, err := json.Marshal(ref.IDs)
	if err != nil {
		return err
	}
	row := RefRow{
		ContainerID:   c.ID,
		ContainerType: string(c.Type),
		Name:          ref.Name,
		Multiple:      ref.Multiple,
		IDs:           datatypes.JSON(ids),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// DeleteRef implements core.BusinessDataRepository.
func (r *GormRepository) DeleteRef(ctx context.Context, c core.Container, name string) error {
	err := r.db.WithContext(ctx).
		Where("container_id = ? AND container_type = ? AND name = ?", c.ID, string(c.Type), name).
		Delete(&RefRow{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

var _ core.BusinessDataRepository = (*GormRepository)(nil)
