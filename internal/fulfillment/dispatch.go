package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockflow-io/stockflow-backend/internal/movement"
	"github.com/stockflow-io/stockflow-backend/pkg/enums"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
)

// Dispatch ships the whole order from one chosen origin. Unlike the
// allocator, a missing route or short stock here is fatal: the caller picked
// the origin, so there is nothing to fall back to.
func (s *Service) Dispatch(ctx context.Context, orderID int64, origin string) (*Report, error) {
	started := time.Now()

	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin is required")
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
	ctx = s.logg.WithSKU(ctx, order.SKU)

	route, err := s.routes.CheapestRoute(ctx, origin, order.CustomerLocation)
	if err != nil {
		return nil, err
	}
	totalCost := route.Cost.Mul(decimal.NewFromInt(int64(order.Quantity)))

	_, err = s.mover.MoveStock(ctx, movement.MoveStockInput{
		SKU:           order.SKU,
		Origin:        origin,
		Destination:   order.CustomerLocation,
		Quantity:      order.Quantity,
		TransportCost: totalCost,
	})
	if err != nil {
		s.metrics.IncFailure("dispatch_order", failureCode(err))
		return nil, err
	}

	if err := s.orders.MarkProcessed(ctx, orderID); err != nil {
		return nil, err
	}

	report := &Report{
		OrderID:   orderID,
		SKU:       order.SKU,
		Requested: order.Quantity,
		Moved:     order.Quantity,
		Remaining: 0,
		TotalCost: totalCost,
		Allocations: []Allocation{{
			Source:        origin,
			QuantityMoved: order.Quantity,
			CostIncurred:  totalCost,
		}},
		Status: enums.OrderStatusProcessed,
	}

	s.metrics.IncSuccess("dispatch_order")
	s.metrics.AddUnitsMoved("dispatch_order", order.Quantity)
	s.metrics.ObserveDuration("dispatch_order", time.Since(started))
	s.logg.Info(ctx, fmt.Sprintf("order dispatched from %s", origin))
	return report, nil
}
