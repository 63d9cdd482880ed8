package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stockflow-io/stockflow-backend/api/responses"
	"github.com/stockflow-io/stockflow-backend/api/validators"
	"github.com/stockflow-io/stockflow-backend/internal/inventory"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
)

type receiveStockPayload struct {
	SKU      string `json:"sku" validate:"required,max=64"`
	Location string `json:"location" validate:"required,max=255"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// ListInventory returns every stock row joined with product data.
func ListInventory(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		rows, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ReceiveStock credits quantity at a location without debiting anywhere,
// covering supplier deliveries and stock corrections.
func ReceiveStock(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload receiveStockPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		err := svc.Receive(ctx, inventory.ReceiveInput{
			SKU:      payload.SKU,
			Location: payload.Location,
			Quantity: payload.Quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "received"})
	}
}

// LowStock lists rows below their product threshold, excluding customer and
// retail hub locations.
func LowStock(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		rows, err := svc.LowStock(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// StockSources lists warehouse locations holding a SKU, largest stock first.
func StockSources(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		sources, err := svc.Sources(ctx, chi.URLParam(r, "sku"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sources)
	}
}

// LocationProducts lists all stock held at one location.
func LocationProducts(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		rows, err := svc.ListByLocation(ctx, chi.URLParam(r, "location"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
