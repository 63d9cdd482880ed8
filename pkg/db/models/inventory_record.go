package models

import "time"

// InventoryRecord holds the on-hand quantity of one SKU at one location.
// The (sku, location) pair is unique; quantity never drops below zero.
type InventoryRecord struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	SKU       string    `gorm:"column:sku;not null;uniqueIndex:idx_inventory_sku_location,priority:1"`
	Location  string    `gorm:"column:location;not null;uniqueIndex:idx_inventory_sku_location,priority:2"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryRecord) TableName() string { return "inventory_records" }
