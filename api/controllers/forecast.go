package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stockflow-io/stockflow-backend/api/responses"
	"github.com/stockflow-io/stockflow-backend/api/validators"
	"github.com/stockflow-io/stockflow-backend/internal/forecast"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
)

const forecastDateLayout = "2006-01-02"

type addForecastPayload struct {
	SKU           string `json:"sku" validate:"required,max=64"`
	ForecastValue int    `json:"forecastValue" validate:"gte=0"`
	ForecastDate  string `json:"forecastDate" validate:"required"`
}

type forecastResponse struct {
	ID            uint      `json:"id"`
	SKU           string    `json:"sku"`
	ForecastValue int       `json:"forecastValue"`
	ForecastDate  string    `json:"forecastDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toForecastResponse(f *models.DemandForecast) forecastResponse {
	return forecastResponse{
		ID:            f.ID,
		SKU:           f.SKU,
		ForecastValue: f.ForecastValue,
		ForecastDate:  f.ForecastDate.Format(forecastDateLayout),
		CreatedAt:     f.CreatedAt,
	}
}

func AddForecast(svc *forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		var payload addForecastPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		date, err := time.Parse(forecastDateLayout, payload.ForecastDate)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "forecastDate must be YYYY-MM-DD").
					WithDetails(map[string]any{"field": "forecastDate"}))
			return
		}

		row, err := svc.Add(ctx, forecast.AddForecastInput{
			SKU:           payload.SKU,
			ForecastValue: payload.ForecastValue,
			ForecastDate:  date,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toForecastResponse(row))
	}
}

func ListForecasts(svc *forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		rows, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]forecastResponse, 0, len(rows))
		for i := range rows {
			out = append(out, toForecastResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ForecastCoverage compares total on-hand stock for a SKU against its most
// recent forecast.
func ForecastCoverage(svc *forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		report, err := svc.Coverage(ctx, chi.URLParam(r, "sku"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
