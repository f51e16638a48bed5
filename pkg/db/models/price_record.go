package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivePricePairConstraint names the partial unique index guaranteeing at
// most one active price per (product_id, pincode). The storage layer owns
// this invariant; application code only reacts to its violations.
const ActivePricePairConstraint = "price_records_active_pair_idx"

// PriceRecord is the price of one catalog product at one delivery pincode.
// Prices are stored in paise; rupee values never reach the database.
type PriceRecord struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  string    `gorm:"column:product_id;not null;index"`
	Pincode    string    `gorm:"column:pincode;type:varchar(6);not null;index"`
	PricePaise int64     `gorm:"column:price_paise;not null"`
	Active     bool      `gorm:"column:active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PriceRecord) TableName() string {
	return "price_records"
}
