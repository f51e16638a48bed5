package models

import "time"

// Product mirrors the catalog rows this service reads. The catalog itself
// is owned by the storefront platform; product_id is its external
// identifier and is treated as opaque here.
type Product struct {
	ProductID string    `gorm:"column:product_id;primaryKey"`
	SKU       string    `gorm:"column:sku;not null"`
	Title     string    `gorm:"column:title;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
