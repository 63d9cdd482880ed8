package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	"github.com/stockflow-io/stockflow-backend/pkg/enums"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/types"
)

// ReceiveInput is the validated payload for receiving stock at a location.
type ReceiveInput struct {
	SKU      string
	Location string
	Quantity int
}

type productReader interface {
	GetProduct(ctx context.Context, sku string) (*models.Product, error)
}

// Service exposes inventory reads plus the receive-stock write.
type Service struct {
	repo     *Repository
	products productReader
}

// NewService constructs an inventory service instance.
func NewService(repo *Repository, products productReader) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &Service{repo: repo, products: products}, nil
}

// Receive adds quantity at a location with insert-or-increment semantics.
// The SKU must reference an existing product.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) error {
	sku := types.NormalizeSKU(input.SKU)
	location := strings.TrimSpace(input.Location)
	if sku == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if location == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if _, err := s.products.GetProduct(ctx, sku); err != nil {
		return err
	}
	// Deliveries land at shippable locations; a location registered earlier
	// with another kind keeps it.
	if err := s.repo.RegisterLocation(ctx, location, enums.LocationKindWarehouse); err != nil {
		return err
	}
	return s.repo.Credit(ctx, sku, location, input.Quantity)
}

// List returns the full ledger joined with product names.
func (s *Service) List(ctx context.Context) ([]StockView, error) {
	return s.repo.ListAll(ctx)
}

// ListByLocation returns the stock held at one location.
func (s *Service) ListByLocation(ctx context.Context, location string) ([]StockView, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}
	return s.repo.ListByLocation(ctx, location)
}

// LowStock returns warehouse rows below their product threshold.
func (s *Service) LowStock(ctx context.Context) ([]StockView, error) {
	return s.repo.LowStock(ctx)
}

// Sources returns the ordered candidate transfer sources for a SKU.
func (s *Service) Sources(ctx context.Context, sku string) ([]SourceStock, error) {
	sku = types.NormalizeSKU(sku)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	return s.repo.ListSources(ctx, sku)
}
