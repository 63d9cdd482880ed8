package logistics

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/pagination"
	"gorm.io/gorm"
)

// ListResult is one page of ledger history plus the cursor for the next page.
type ListResult struct {
	Entries    []models.LogisticsEntry `json:"entries"`
	NextCursor string                  `json:"nextCursor,omitempty"`
}

// Repository owns the append-only movement ledger. Entries are never
// updated or deleted.
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

// Append records a completed movement. Callers pass the total transport
// cost for the movement, not the per-unit rate.
func (r *Repository) Append(ctx context.Context, sku, origin, destination string, quantity int, transportCost decimal.Decimal) (*models.LogisticsEntry, error) {
	entry := models.LogisticsEntry{
		SKU:           sku,
		Origin:        origin,
		Destination:   destination,
		Quantity:      quantity,
		TransportCost: transportCost,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append logistics entry")
	}
	return &entry, nil
}

// List pages through ledger history, most recent first.
func (r *Repository) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.db.WithContext(ctx).Model(&models.LogisticsEntry{})
	if cursor != nil {
		qb = qb.Where("id < ?", cursor.ID)
	}

	var entries []models.LogisticsEntry
	err = qb.
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&entries).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list logistics entries")
	}

	nextCursor := ""
	if len(entries) > pageSize {
		entries = entries[:pageSize]
		last := entries[len(entries)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ListResult{Entries: entries, NextCursor: nextCursor}, nil
}

// ListBySKU returns the full movement history for one SKU, most recent first.
func (r *Repository) ListBySKU(ctx context.Context, sku string) ([]models.LogisticsEntry, error) {
	var entries []models.LogisticsEntry
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Order("id DESC").
		Find(&entries).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list logistics entries for sku")
	}
	return entries, nil
}
