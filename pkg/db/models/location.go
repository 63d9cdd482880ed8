package models

import (
	"time"

	"github.com/stockflow-io/stockflow-backend/pkg/enums"
)

// Location tags every known stock location with an explicit kind instead of
// inferring the kind from a name prefix.
type Location struct {
	Name      string             `gorm:"column:name;primaryKey"`
	Kind      enums.LocationKind `gorm:"column:kind;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (Location) TableName() string { return "locations" }
