package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockflow-io/stockflow-backend/api/responses"
	"github.com/stockflow-io/stockflow-backend/api/validators"
	"github.com/stockflow-io/stockflow-backend/internal/transport"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
	"github.com/stockflow-io/stockflow-backend/pkg/types"
)

type routeResponse struct {
	ID          uint            `json:"id"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Cost        decimal.Decimal `json:"cost"`
	Carrier     *string         `json:"carrier,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CheapestRoute resolves the lowest-cost link between two locations.
func CheapestRoute(repo *transport.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transport repository unavailable"))
			return
		}

		origin, err := validators.RequireQuery(r, "origin")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		destination, err := validators.RequireQuery(r, "destination")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		route, err := repo.CheapestRoute(ctx, origin, destination)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, routeResponse{
			ID:          route.ID,
			Origin:      route.Origin,
			Destination: route.Destination,
			Cost:        route.Cost,
			Carrier:     route.Carrier,
			CreatedAt:   route.CreatedAt,
		})
	}
}

// RouteLocations lists every location the route table knows about. With a
// destination query parameter, origins narrows to locations that can reach it.
func RouteLocations(repo *transport.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transport repository unavailable"))
			return
		}

		if destination := strings.TrimSpace(r.URL.Query().Get("destination")); destination != "" {
			sku := types.NormalizeSKU(r.URL.Query().Get("sku"))
			origins, err := repo.ListOriginsTo(ctx, destination, sku)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string][]string{"origins": origins})
			return
		}

		origins, err := repo.ListOrigins(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		destinations, err := repo.ListDestinations(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string][]string{
			"origins":      origins,
			"destinations": destinations,
		})
	}
}
