package forecast

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository owns demand forecast persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts one forecast row.
func (r *Repository) Create(ctx context.Context, row *models.DemandForecast) (*models.DemandForecast, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert forecast")
	}
	return row, nil
}

// List returns all forecast rows, most recent forecast date first.
func (r *Repository) List(ctx context.Context) ([]models.DemandForecast, error) {
	var rows []models.DemandForecast
	err := r.db.WithContext(ctx).
		Order("forecast_date DESC").
		Order("id DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list forecasts")
	}
	return rows, nil
}

// LatestForSKU returns the most recent forecast row for a SKU.
func (r *Repository) LatestForSKU(ctx context.Context, sku string) (*models.DemandForecast, error) {
	var row models.DemandForecast
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Order("forecast_date DESC").
		Order("id DESC").
		First(&row).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no forecast for sku %q", sku))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: latest forecast")
	}
	return &row, nil
}
