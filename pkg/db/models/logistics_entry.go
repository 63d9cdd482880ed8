package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LogisticsEntry is the append-only audit record of a completed movement.
// TransportCost is the total for the movement, not per unit. Rows are never
// updated or deleted.
type LogisticsEntry struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	SKU           string          `gorm:"column:sku;not null;index"`
	Origin        string          `gorm:"column:origin;not null"`
	Destination   string          `gorm:"column:destination;not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	TransportCost decimal.Decimal `gorm:"column:transport_cost;type:numeric(12,4);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (LogisticsEntry) TableName() string { return "logistics_entries" }
