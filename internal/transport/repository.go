package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	"github.com/stockflow-io/stockflow-backend/pkg/enums"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository reads the route cost table. Routes are managed externally;
// this core only selects from them.
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

// CheapestRoute returns the minimum-cost route for the (origin, destination)
// pair. Multiple rows may exist for the same pair (competing carriers); the
// cheapest one is authoritative.
func (r *Repository) CheapestRoute(ctx context.Context, origin, destination string) (*models.Route, error) {
	var route models.Route
	err := r.db.WithContext(ctx).
		Where("origin = ? AND destination = ?", origin, destination).
		Order("cost ASC").
		Order("id ASC").
		First(&route).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeRouteNotFound,
			fmt.Sprintf("no route from %q to %q", origin, destination))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: select cheapest route")
	}
	return &route, nil
}

// ListOrigins returns the distinct shipping origins in the route table.
// Retail hubs and customer locations receive stock but never ship it, so
// they are filtered out; unregistered locations count as warehouses.
func (r *Repository) ListOrigins(ctx context.Context) ([]string, error) {
	var origins []string
	err := r.db.WithContext(ctx).
		Table("routes rt").
		Joins("LEFT JOIN locations l ON l.name = rt.origin").
		Where("l.kind IS NULL OR l.kind NOT IN ?", []enums.LocationKind{
			enums.LocationKindRetailHub,
			enums.LocationKindCustomer,
		}).
		Distinct("rt.origin").
		Order("rt.origin ASC").
		Pluck("rt.origin", &origins).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list route origins")
	}
	return origins, nil
}

// ListDestinations returns the distinct destinations present in the route table.
func (r *Repository) ListDestinations(ctx context.Context) ([]string, error) {
	var destinations []string
	err := r.db.WithContext(ctx).
		Model(&models.Route{}).
		Distinct("destination").
		Order("destination ASC").
		Pluck("destination", &destinations).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list route destinations")
	}
	return destinations, nil
}

// ListOriginsTo returns the distinct origins that have at least one route to
// the given destination. With a non-empty sku it narrows to origins actually
// holding that SKU, so callers see only sources a movement could ship from.
func (r *Repository) ListOriginsTo(ctx context.Context, destination, sku string) ([]string, error) {
	qb := r.db.WithContext(ctx).
		Table("routes rt").
		Joins("LEFT JOIN locations l ON l.name = rt.origin").
		Where("rt.destination = ?", destination).
		Where("l.kind IS NULL OR l.kind NOT IN ?", []enums.LocationKind{
			enums.LocationKindRetailHub,
			enums.LocationKindCustomer,
		})
	if sku != "" {
		qb = qb.Joins("JOIN inventory_records ir ON ir.location = rt.origin").
			Where("ir.sku = ? AND ir.quantity > 0", sku)
	}

	var origins []string
	err := qb.
		Distinct("rt.origin").
		Order("rt.origin ASC").
		Pluck("rt.origin", &origins).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list origins for destination")
	}
	return origins, nil
}
