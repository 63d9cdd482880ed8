package models

import "time"

// Product is the catalog entry for a stock keeping unit. SKUs are stored
// trimmed and upper-cased; callers normalize before lookups.
type Product struct {
	SKU         string    `gorm:"column:sku;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	Threshold   int       `gorm:"column:threshold;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
