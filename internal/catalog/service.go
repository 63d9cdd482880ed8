package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockflow-io/stockflow-backend/internal/inventory"
	"github.com/stockflow-io/stockflow-backend/pkg/db"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/types"
	"gorm.io/gorm"
)

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU         string
	Name        string
	Description *string
	Threshold   int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Threshold   *int
}

// Service exposes product catalog management.
type Service struct {
	repo      *Repository
	inventory *inventory.Repository
	dbClient  *db.Client
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, inventoryRepo *inventory.Repository, dbClient *db.Client) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Service{repo: repo, inventory: inventoryRepo, dbClient: dbClient}, nil
}

// CreateProduct inserts a product with a normalized SKU.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	sku := types.NormalizeSKU(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold cannot be negative")
	}

	product := &models.Product{
		SKU:         sku,
		Name:        name,
		Description: input.Description,
		Threshold:   input.Threshold,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %q already exists", sku))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return created, nil
}

// UpdateProduct applies the provided mutations to an existing product.
func (s *Service) UpdateProduct(ctx context.Context, sku string, input UpdateProductInput) (*models.Product, error) {
	sku = types.NormalizeSKU(sku)
	product, err := s.repo.GetProduct(ctx, sku)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Threshold != nil {
		if *input.Threshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold cannot be negative")
		}
		product.Threshold = *input.Threshold
	}

	return s.repo.UpdateProduct(ctx, product)
}

// DeleteProduct removes the product and its inventory rows in one
// transaction. The cascade is explicit so a failed delete can never leave
// orphaned ledger rows behind.
func (s *Service) DeleteProduct(ctx context.Context, sku string) error {
	sku = types.NormalizeSKU(sku)
	if sku == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.GetProduct(ctx, sku); err != nil {
			return err
		}
		if err := s.inventory.WithTx(tx).DeleteBySKU(ctx, sku); err != nil {
			return err
		}
		return txRepo.DeleteProduct(ctx, sku)
	})
}

// GetProduct loads a product by SKU with normalization applied.
func (s *Service) GetProduct(ctx context.Context, sku string) (*models.Product, error) {
	return s.repo.GetProduct(ctx, types.NormalizeSKU(sku))
}

// ListProducts returns the catalog ordered by SKU.
func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListProducts(ctx)
}
