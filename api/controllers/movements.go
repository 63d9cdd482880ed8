package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockflow-io/stockflow-backend/api/responses"
	"github.com/stockflow-io/stockflow-backend/api/validators"
	"github.com/stockflow-io/stockflow-backend/internal/logistics"
	"github.com/stockflow-io/stockflow-backend/internal/movement"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
	"github.com/stockflow-io/stockflow-backend/pkg/pagination"
)

// transportCost arrives as a JSON string to avoid float drift on money.
type moveStockPayload struct {
	SKU           string `json:"sku" validate:"required,max=64"`
	Origin        string `json:"origin" validate:"required,max=255"`
	Destination   string `json:"destination" validate:"required,max=255"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
	TransportCost string `json:"transportCost" validate:"required"`
}

type movementResponse struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	Quantity      int             `json:"quantity"`
	TransportCost decimal.Decimal `json:"transportCost"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toMovementResponse(entry *models.LogisticsEntry) movementResponse {
	return movementResponse{
		ID:            entry.ID,
		SKU:           entry.SKU,
		Origin:        entry.Origin,
		Destination:   entry.Destination,
		Quantity:      entry.Quantity,
		TransportCost: entry.TransportCost,
		CreatedAt:     entry.CreatedAt,
	}
}

// MoveStock executes one atomic transfer and returns the ledger entry.
func MoveStock(svc *movement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		var payload moveStockPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cost, err := decimal.NewFromString(strings.TrimSpace(payload.TransportCost))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "transportCost must be a decimal string").
					WithDetails(map[string]any{"field": "transportCost"}))
			return
		}

		entry, err := svc.MoveStock(ctx, movement.MoveStockInput{
			SKU:           payload.SKU,
			Origin:        payload.Origin,
			Destination:   payload.Destination,
			Quantity:      payload.Quantity,
			TransportCost: cost,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toMovementResponse(entry))
	}
}

// MovementHistory pages through the ledger, newest entries first.
func MovementHistory(repo *logistics.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "logistics repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if sku := strings.TrimSpace(r.URL.Query().Get("sku")); sku != "" {
			entries, err := repo.ListBySKU(ctx, sku)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			out := make([]movementResponse, 0, len(entries))
			for i := range entries {
				out = append(out, toMovementResponse(&entries[i]))
			}
			responses.WriteSuccess(w, map[string]any{"entries": out})
			return
		}

		result, err := repo.List(ctx, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]movementResponse, 0, len(result.Entries))
		for i := range result.Entries {
			out = append(out, toMovementResponse(&result.Entries[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"entries":    out,
			"nextCursor": result.NextCursor,
		})
	}
}
