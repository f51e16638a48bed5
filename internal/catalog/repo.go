package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/bazaarworks/pincode-pricing-backend/pkg/db/models"
)

// Repository reads the product catalog mirror. The storefront platform
// owns these rows; this service never writes them outside of migrations
// and dev seeding.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// ListActive returns every active catalog product ordered by SKU, the row
// source for template downloads.
func (r *Repository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sku ASC").
		Find(&products).Error
	return products, err
}

// Exists reports whether a product id is known to the catalog mirror,
// active or not.
func (r *Repository) Exists(ctx context.Context, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count > 0, err
}
