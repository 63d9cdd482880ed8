package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Route is a costed transport link between two locations. Multiple rows may
// exist for the same pair (competing carriers); the cheapest wins for
// allocation decisions.
type Route struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Origin      string          `gorm:"column:origin;not null;index:idx_routes_pair,priority:1"`
	Destination string          `gorm:"column:destination;not null;index:idx_routes_pair,priority:2"`
	Cost        decimal.Decimal `gorm:"column:cost;type:numeric(12,4);not null"`
	Carrier     *string         `gorm:"column:carrier"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Route) TableName() string { return "routes" }
