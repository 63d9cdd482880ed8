package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/types"
)

// PlaceOrderInput holds the validated payload to place an order.
type PlaceOrderInput struct {
	SKU              string
	Quantity         int
	CustomerName     string
	CustomerLocation string
}

type productReader interface {
	GetProduct(ctx context.Context, sku string) (*models.Product, error)
}

// Service exposes order lifecycle management outside of fulfillment.
type Service struct {
	repo     *Repository
	products productReader
}

// NewService constructs an order service instance.
func NewService(repo *Repository, products productReader) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &Service{repo: repo, products: products}, nil
}

// PlaceOrder creates a Pending order for an existing product.
func (s *Service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	sku := types.NormalizeSKU(input.SKU)
	customerName := strings.TrimSpace(input.CustomerName)
	customerLocation := strings.TrimSpace(input.CustomerLocation)

	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if customerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customerName is required")
	}
	if customerLocation == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customerLocation is required")
	}

	if _, err := s.products.GetProduct(ctx, sku); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &models.Order{
		SKU:              sku,
		Quantity:         input.Quantity,
		CustomerName:     customerName,
		CustomerLocation: customerLocation,
	})
}

// GetOrder loads one order.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// ListOrders returns all orders, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.repo.List(ctx)
}

// DeleteOrder removes an order.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	return s.repo.Delete(ctx, orderID)
}
