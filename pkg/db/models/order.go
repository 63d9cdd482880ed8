package models

import (
	"time"

	"github.com/stockflow-io/stockflow-backend/pkg/enums"
)

// Order is a customer request for quantity of one SKU delivered to
// CustomerLocation. IDs are monotonic by insertion.
type Order struct {
	ID               int64             `gorm:"column:order_id;primaryKey;autoIncrement"`
	SKU              string            `gorm:"column:sku;not null;index"`
	Quantity         int               `gorm:"column:quantity;not null"`
	CustomerName     string            `gorm:"column:customer_name;not null"`
	CustomerLocation string            `gorm:"column:customer_location;not null"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:Pending"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
