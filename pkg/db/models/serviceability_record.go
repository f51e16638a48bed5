package models

import "time"

// ServiceabilityRecord captures delivery capability for one pincode,
// independent of any product. Written by the coverage-management path,
// read-only for the pricing core.
type ServiceabilityRecord struct {
	Pincode      string    `gorm:"column:pincode;type:varchar(6);primaryKey"`
	DeliveryDays int       `gorm:"column:delivery_days;not null"`
	CODAvailable bool      `gorm:"column:cod_available;not null"`
	Serviceable  bool      `gorm:"column:serviceable;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ServiceabilityRecord) TableName() string {
	return "serviceability_records"
}
