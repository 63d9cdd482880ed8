package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stockflow-io/stockflow-backend/api/responses"
	"github.com/stockflow-io/stockflow-backend/api/validators"
	"github.com/stockflow-io/stockflow-backend/internal/fulfillment"
	"github.com/stockflow-io/stockflow-backend/internal/orders"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
)

type placeOrderPayload struct {
	SKU              string `json:"sku" validate:"required,max=64"`
	Quantity         int    `json:"quantity" validate:"required,gt=0"`
	CustomerName     string `json:"customerName" validate:"required,max=255"`
	CustomerLocation string `json:"customerLocation" validate:"required,max=255"`
}

type dispatchPayload struct {
	Origin string `json:"origin" validate:"required,max=255"`
}

type orderResponse struct {
	OrderID          int64     `json:"orderId"`
	SKU              string    `json:"sku"`
	Quantity         int       `json:"quantity"`
	CustomerName     string    `json:"customerName"`
	CustomerLocation string    `json:"customerLocation"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toOrderResponse(o *models.Order) orderResponse {
	return orderResponse{
		OrderID:          o.ID,
		SKU:              o.SKU,
		Quantity:         o.Quantity,
		CustomerName:     o.CustomerName,
		CustomerLocation: o.CustomerLocation,
		Status:           o.Status.String(),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func orderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "orderId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "orderId must be a positive integer").
			WithDetails(map[string]any{"field": "orderId"})
	}
	return id, nil
}

func PlaceOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload placeOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(ctx, orders.PlaceOrderInput{
			SKU:              payload.SKU,
			Quantity:         payload.Quantity,
			CustomerName:     payload.CustomerName,
			CustomerLocation: payload.CustomerLocation,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderResponse(order))
	}
}

func ListOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		rows, err := svc.ListOrders(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(rows))
		for i := range rows {
			out = append(out, toOrderResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func GetOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.GetOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

func DeleteOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteOrder(ctx, orderID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// FulfillOrder allocates stock across warehouses for the order's full
// quantity. Partial fills return 200 with the report showing what remains.
func FulfillOrder(ordersSvc *orders.Service, fulfillSvc *fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if ordersSvc == nil || fulfillSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := ordersSvc.GetOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := fulfillSvc.FulfillOrder(ctx, order.ID, order.SKU, order.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// DispatchOrder ships the full order quantity from one named origin.
func DispatchOrder(svc *fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload dispatchPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Dispatch(ctx, orderID, payload.Origin)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
