package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/types"
)

// AddForecastInput holds the validated payload to record a forecast.
type AddForecastInput struct {
	SKU           string
	ForecastValue int
	ForecastDate  time.Time
}

// CoverageReport compares on-hand stock against the latest forecast.
type CoverageReport struct {
	SKU           string `json:"sku"`
	OnHand        int    `json:"onHand"`
	ForecastValue int    `json:"forecastValue"`
	Shortfall     int    `json:"shortfall"`
	Covered       bool   `json:"covered"`
}

type stockCounter interface {
	TotalOnHand(ctx context.Context, sku string) (int, error)
}

// Service exposes demand forecast reads and writes.
type Service struct {
	repo  *Repository
	stock stockCounter
}

// NewService constructs a forecast service instance.
func NewService(repo *Repository, stock stockCounter) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("forecast repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock counter required")
	}
	return &Service{repo: repo, stock: stock}, nil
}

// Add records one forecast row.
func (s *Service) Add(ctx context.Context, input AddForecastInput) (*models.DemandForecast, error) {
	sku := types.NormalizeSKU(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.ForecastValue < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "forecastValue cannot be negative")
	}
	if input.ForecastDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "forecastDate is required")
	}

	return s.repo.Create(ctx, &models.DemandForecast{
		SKU:           sku,
		ForecastValue: input.ForecastValue,
		ForecastDate:  input.ForecastDate,
	})
}

// List returns all forecast rows.
func (s *Service) List(ctx context.Context) ([]models.DemandForecast, error) {
	return s.repo.List(ctx)
}

// Coverage compares total on-hand stock for a SKU against its latest
// forecast value.
func (s *Service) Coverage(ctx context.Context, sku string) (*CoverageReport, error) {
	sku = types.NormalizeSKU(sku)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}

	latest, err := s.repo.LatestForSKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	onHand, err := s.stock.TotalOnHand(ctx, sku)
	if err != nil {
		return nil, err
	}

	shortfall := latest.ForecastValue - onHand
	if shortfall < 0 {
		shortfall = 0
	}
	return &CoverageReport{
		SKU:           sku,
		OnHand:        onHand,
		ForecastValue: latest.ForecastValue,
		Shortfall:     shortfall,
		Covered:       onHand >= latest.ForecastValue,
	}, nil
}
