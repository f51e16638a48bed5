package serviceability

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bazaarworks/pincode-pricing-backend/pkg/db/models"
)

// Repository persists per-pincode delivery capability.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// Get loads the serviceability row for one pincode.
// gorm.ErrRecordNotFound passes through when no row exists.
func (r *Repository) Get(ctx context.Context, pin string) (*models.ServiceabilityRecord, error) {
	var record models.ServiceabilityRecord
	err := r.db.WithContext(ctx).First(&record, "pincode = ?", pin).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert writes the serviceability row for a pincode, inserting or
// replacing the delivery attributes on conflict.
func (r *Repository) Upsert(ctx context.Context, record *models.ServiceabilityRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pincode"}},
			DoUpdates: clause.AssignmentColumns([]string{"delivery_days", "cod_available", "serviceable", "updated_at"}),
		}).
		Create(record).Error
}

// ListServiceable returns every pincode currently marked deliverable,
// sorted ascending.
func (r *Repository) ListServiceable(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.ServiceabilityRecord{}).
		Where("serviceable = ?", true).
		Order("pincode ASC").
		Pluck("pincode", &codes).Error
	return codes, err
}
