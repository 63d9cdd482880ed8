package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockflow-io/stockflow-backend/internal/inventory"
	"github.com/stockflow-io/stockflow-backend/internal/movement"
	"github.com/stockflow-io/stockflow-backend/internal/orders"
	"github.com/stockflow-io/stockflow-backend/internal/transport"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	"github.com/stockflow-io/stockflow-backend/pkg/enums"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
	"github.com/stockflow-io/stockflow-backend/pkg/metrics"
	"github.com/stockflow-io/stockflow-backend/pkg/types"
	"go.uber.org/multierr"
)

// Allocation is one executed movement toward the order's destination.
type Allocation struct {
	Source        string          `json:"source"`
	QuantityMoved int             `json:"quantityMoved"`
	CostIncurred  decimal.Decimal `json:"costIncurred"`
}

// SourceSkip explains why a candidate source contributed nothing.
type SourceSkip struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Report is the structured outcome of one fulfillment attempt. Callers can
// always distinguish fully filled, partially filled, and not filled.
type Report struct {
	OrderID     int64             `json:"orderId"`
	SKU         string            `json:"sku"`
	Requested   int               `json:"requested"`
	Moved       int               `json:"moved"`
	Remaining   int               `json:"remaining"`
	TotalCost   decimal.Decimal   `json:"totalCost"`
	Allocations []Allocation      `json:"allocations"`
	Skipped     []SourceSkip      `json:"skipped,omitempty"`
	Status      enums.OrderStatus `json:"status"`
}

type stockMover interface {
	MoveStock(ctx context.Context, input movement.MoveStockInput) (*models.LogisticsEntry, error)
}

// Service allocates a customer order across source warehouses. Each
// movement is its own transaction; the allocator holds no lock across the
// loop, so it re-reads availability immediately before every move.
type Service struct {
	orders    *orders.Repository
	inventory *inventory.Repository
	routes    *transport.Repository
	mover     stockMover
	logg      *logger.Logger
	metrics   *metrics.MovementMetrics
}

// NewService constructs a fulfillment service instance.
func NewService(
	orderRepo *orders.Repository,
	inventoryRepo *inventory.Repository,
	routeRepo *transport.Repository,
	mover stockMover,
	logg *logger.Logger,
	movementMetrics *metrics.MovementMetrics,
) (*Service, error) {
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if routeRepo == nil {
		return nil, fmt.Errorf("route repository required")
	}
	if mover == nil {
		return nil, fmt.Errorf("stock mover required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		orders:    orderRepo,
		inventory: inventoryRepo,
		routes:    routeRepo,
		mover:     mover,
		logg:      logg,
		metrics:   movementMetrics,
	}, nil
}

// FulfillOrder moves stock toward the order's customer location until the
// requested quantity is covered or sources run out. Sources are visited
// largest stockpile first, ties broken by location name; a source with no
// route to the destination is skipped, not fatal. The order transitions to
// Processed only when fully covered.
func (s *Service) FulfillOrder(ctx context.Context, orderID int64, sku string, quantity int) (*Report, error) {
	started := time.Now()

	sku = types.NormalizeSKU(sku)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("order %d is %s, not pending", orderID, order.Status))
	}

	ctx = s.logg.WithOrderID(ctx, orderID)
	ctx = s.logg.WithSKU(ctx, sku)

	sources, err := s.inventory.ListSources(ctx, sku)
	if err != nil {
		return nil, err
	}

	report := &Report{
		OrderID:   orderID,
		SKU:       sku,
		Requested: quantity,
		Remaining: quantity,
		TotalCost: decimal.Zero,
		Status:    enums.OrderStatusPending,
	}

	var skipErrs error
	for _, source := range sources {
		if report.Remaining <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			// A move in flight always completes or rolls back before we get
			// here; cancellation only lands between units.
			s.metrics.IncFailure("fulfill_order", string(pkgerrors.CodeDependency))
			return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfillment cancelled")
		}

		moved, skip, err := s.moveFromSource(ctx, order, report, source.Location)
		if err != nil {
			s.metrics.IncFailure("fulfill_order", failureCode(err))
			return report, err
		}
		if skip != nil {
			report.Skipped = append(report.Skipped, *skip)
			skipErrs = multierr.Append(skipErrs,
				fmt.Errorf("source %s: %s", skip.Source, skip.Reason))
			continue
		}
		report.Moved += moved
		report.Remaining -= moved
	}

	if skipErrs != nil {
		ctx := s.logg.WithField(ctx, "skipped_sources", len(multierr.Errors(skipErrs)))
		s.logg.Warn(ctx, "some fulfillment sources were skipped: "+skipErrs.Error())
	}

	if report.Moved == 0 {
		s.metrics.IncFailure("fulfill_order", string(pkgerrors.CodeNoFulfillmentPossible))
		return report, pkgerrors.New(pkgerrors.CodeNoFulfillmentPossible,
			fmt.Sprintf("no source could ship sku %q to %q", sku, order.CustomerLocation))
	}

	if report.Remaining == 0 {
		if err := s.orders.MarkProcessed(ctx, orderID); err != nil {
			return report, err
		}
		report.Status = enums.OrderStatusProcessed
	}

	s.metrics.IncSuccess("fulfill_order")
	s.metrics.AddUnitsMoved("fulfill_order", report.Moved)
	s.metrics.ObserveDuration("fulfill_order", time.Since(started))
	s.logg.Info(ctx, fmt.Sprintf("fulfillment moved %d of %d units", report.Moved, report.Requested))
	return report, nil
}

// moveFromSource executes at most one movement from the given source.
// Returns a skip when the source cannot contribute, an error only on
// failures that must abort the whole loop.
func (s *Service) moveFromSource(ctx context.Context, order *models.Order, report *Report, location string) (int, *SourceSkip, error) {
	// Re-read availability: the snapshot from ListSources only fixes
	// iteration order, another actor may have drained this source since.
	record, err := s.inventory.Get(ctx, report.SKU, location)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return 0, &SourceSkip{Source: location, Reason: "stock no longer present"}, nil
		}
		return 0, nil, err
	}
	if record.Quantity <= 0 {
		return 0, &SourceSkip{Source: location, Reason: "stock drained"}, nil
	}

	moveQty := report.Remaining
	if record.Quantity < moveQty {
		moveQty = record.Quantity
	}

	route, err := s.routes.CheapestRoute(ctx, location, order.CustomerLocation)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeRouteNotFound) {
			return 0, &SourceSkip{Source: location, Reason: "no route to destination"}, nil
		}
		return 0, nil, err
	}

	totalCost := route.Cost.Mul(decimal.NewFromInt(int64(moveQty)))
	_, err = s.mover.MoveStock(ctx, movement.MoveStockInput{
		SKU:           report.SKU,
		Origin:        location,
		Destination:   order.CustomerLocation,
		Quantity:      moveQty,
		TransportCost: totalCost,
	})
	if err != nil {
		switch {
		case pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock),
			pkgerrors.HasCode(err, pkgerrors.CodeOriginNotFound),
			pkgerrors.HasCode(err, pkgerrors.CodeConcurrentModification):
			// Per-source failures: try the next candidate.
			return 0, &SourceSkip{Source: location, Reason: err.Error()}, nil
		default:
			// Validation and store failures are systemic, abort the loop.
			return 0, nil, err
		}
	}

	report.Allocations = append(report.Allocations, Allocation{
		Source:        location,
		QuantityMoved: moveQty,
		CostIncurred:  totalCost,
	})
	report.TotalCost = report.TotalCost.Add(totalCost)
	return moveQty, nil, nil
}

func failureCode(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
