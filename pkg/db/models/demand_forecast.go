package models

import "time"

// DemandForecast is an externally supplied demand estimate per SKU.
type DemandForecast struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement"`
	SKU           string    `gorm:"column:sku;not null;index"`
	ForecastValue int       `gorm:"column:forecast_value;not null"`
	ForecastDate  time.Time `gorm:"column:forecast_date;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DemandForecast) TableName() string { return "demand_forecasts" }
