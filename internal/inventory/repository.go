package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	"github.com/stockflow-io/stockflow-backend/pkg/enums"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceStock is one candidate transfer source for a SKU.
type SourceStock struct {
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

// StockView is an inventory row joined with its product.
type StockView struct {
	SKU         string `json:"sku"`
	ProductName string `json:"productName"`
	Location    string `json:"location"`
	Quantity    int    `json:"quantity"`
	Threshold   int    `json:"threshold"`
}

// Repository owns reads and writes on the inventory ledger. Quantity
// mutations stay inside this package and internal/movement; nothing else
// touches inventory_records.quantity.
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

// LockOrigin loads the (sku, origin) row and holds a row lock for the rest
// of the transaction. SQLite serializes writers on its own, so the locking
// clause is only added on Postgres.
func (r *Repository) LockOrigin(ctx context.Context, sku, origin string) (*models.InventoryRecord, error) {
	qb := r.db.WithContext(ctx)
	if qb.Dialector.Name() == "postgres" {
		qb = qb.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var record models.InventoryRecord
	err := qb.First(&record, "sku = ? AND location = ?", sku, origin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeOriginNotFound,
			fmt.Sprintf("no inventory for sku %q at %q", sku, origin))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock origin inventory")
	}
	return &record, nil
}

// Debit decrements the (sku, location) quantity. The quantity guard repeats
// the availability check inside the UPDATE itself, so a row drained between
// the lock and this statement surfaces as ConcurrentModification instead of
// going negative.
func (r *Repository) Debit(ctx context.Context, sku, location string, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "debit quantity must be positive")
	}

	result := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("sku = ? AND location = ? AND quantity >= ?", sku, location, quantity).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "db: debit inventory")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrentModification,
			fmt.Sprintf("inventory for sku %q at %q changed under us", sku, location))
	}
	return nil
}

// Credit increments the (sku, location) quantity, creating the row if the
// pair has never held stock. The upsert is a single statement so two
// concurrent credits to a fresh pair cannot both insert.
func (r *Repository) Credit(ctx context.Context, sku, location string, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit quantity must be positive")
	}

	record := models.InventoryRecord{
		SKU:       sku,
		Location:  location,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sku"}, {Name: "location"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", quantity),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&record).
		Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: credit inventory")
	}
	return nil
}

// Get loads a single ledger row without locking.
func (r *Repository) Get(ctx context.Context, sku, location string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).First(&record, "sku = ? AND location = ?", sku, location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("no inventory for sku %q at %q", sku, location))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: get inventory")
	}
	return &record, nil
}

// RegisterLocation records a location's kind. First writer wins: a location
// already registered with an explicit kind keeps it.
func (r *Repository) RegisterLocation(ctx context.Context, name string, kind enums.LocationKind) error {
	location := models.Location{Name: name, Kind: kind}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&location).
		Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: register location")
	}
	return nil
}

// ListSources returns the candidate transfer sources for a SKU: warehouse
// locations with stock, largest stockpile first, location name breaking ties.
// A location with no registration is treated as a warehouse so stock at it
// stays shippable.
func (r *Repository) ListSources(ctx context.Context, sku string) ([]SourceStock, error) {
	var sources []SourceStock
	err := r.db.WithContext(ctx).
		Table("inventory_records ir").
		Select("ir.location AS location, ir.quantity AS quantity").
		Joins("LEFT JOIN locations l ON l.name = ir.location").
		Where("ir.sku = ? AND ir.quantity > 0", sku).
		Where("l.kind IS NULL OR l.kind = ?", enums.LocationKindWarehouse).
		Order("ir.quantity DESC").
		Order("ir.location ASC").
		Scan(&sources).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list sources")
	}
	return sources, nil
}

// ListAll returns the full ledger joined with product names.
func (r *Repository) ListAll(ctx context.Context) ([]StockView, error) {
	return r.listViews(ctx, nil)
}

// ListByLocation returns the ledger rows held at one location.
func (r *Repository) ListByLocation(ctx context.Context, location string) ([]StockView, error) {
	filter := func(qb *gorm.DB) *gorm.DB {
		return qb.Where("ir.location = ?", location)
	}
	return r.listViews(ctx, filter)
}

// LowStock returns rows below their product threshold. Sell-through points
// (retail hubs) and customer destinations restock on their own cadence, so
// only warehouse rows alert.
func (r *Repository) LowStock(ctx context.Context) ([]StockView, error) {
	var rows []StockView
	err := r.db.WithContext(ctx).
		Table("inventory_records ir").
		Select("ir.sku AS sku, p.name AS product_name, ir.location AS location, ir.quantity AS quantity, p.threshold AS threshold").
		Joins("JOIN products p ON p.sku = ir.sku").
		Joins("LEFT JOIN locations l ON l.name = ir.location").
		Where("ir.quantity < p.threshold").
		Where("l.kind IS NULL OR l.kind NOT IN ?", []enums.LocationKind{
			enums.LocationKindRetailHub,
			enums.LocationKindCustomer,
		}).
		Order("ir.sku ASC").
		Order("ir.location ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: low stock report")
	}
	return rows, nil
}

// TotalOnHand sums all ledger quantities for a SKU.
func (r *Repository) TotalOnHand(ctx context.Context, sku string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("sku = ?", sku).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).
		Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: total on hand")
	}
	return int(total), nil
}

// DeleteBySKU removes every ledger row for a SKU. Used by the catalog
// cascade when a product is deleted.
func (r *Repository) DeleteBySKU(ctx context.Context, sku string) error {
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Delete(&models.InventoryRecord{}).
		Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete inventory for sku")
	}
	return nil
}

func (r *Repository) listViews(ctx context.Context, filter func(*gorm.DB) *gorm.DB) ([]StockView, error) {
	qb := r.db.WithContext(ctx).
		Table("inventory_records ir").
		Select("ir.sku AS sku, p.name AS product_name, ir.location AS location, ir.quantity AS quantity, p.threshold AS threshold").
		Joins("JOIN products p ON p.sku = ir.sku")
	if filter != nil {
		qb = filter(qb)
	}

	var rows []StockView
	err := qb.
		Order("ir.sku ASC").
		Order("ir.location ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list inventory")
	}
	return rows, nil
}
