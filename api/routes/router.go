package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stockflow-io/stockflow-backend/api/controllers"
	"github.com/stockflow-io/stockflow-backend/api/middleware"
	"github.com/stockflow-io/stockflow-backend/internal/catalog"
	"github.com/stockflow-io/stockflow-backend/internal/forecast"
	"github.com/stockflow-io/stockflow-backend/internal/fulfillment"
	"github.com/stockflow-io/stockflow-backend/internal/inventory"
	"github.com/stockflow-io/stockflow-backend/internal/logistics"
	"github.com/stockflow-io/stockflow-backend/internal/movement"
	"github.com/stockflow-io/stockflow-backend/internal/orders"
	"github.com/stockflow-io/stockflow-backend/internal/transport"
	"github.com/stockflow-io/stockflow-backend/pkg/config"
	"github.com/stockflow-io/stockflow-backend/pkg/db"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
	"github.com/stockflow-io/stockflow-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Handlers receive only the
// services they use.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    *db.Client
	Redis *redis.Client

	Registry *prometheus.Registry

	Catalog     *catalog.Service
	Inventory   *inventory.Service
	Transport   *transport.Repository
	Movement    *movement.Service
	Ledger      *logistics.Repository
	Orders      *orders.Service
	Fulfillment *fulfillment.Service
	Forecast    *forecast.Service
}

func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.CORS(nil))

	env := ""
	if deps.Config != nil {
		env = deps.Config.App.Env
	}

	r.Get("/health/live", controllers.HealthLive(env))
	r.Get("/health/ready", controllers.HealthReady(deps.DB, deps.Redis, deps.Logger))

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, deps.Logger))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, deps.Logger))
			r.Post("/", controllers.CreateProduct(deps.Catalog, deps.Logger))
			r.Get("/{sku}", controllers.GetProduct(deps.Catalog, deps.Logger))
			r.Put("/{sku}", controllers.UpdateProduct(deps.Catalog, deps.Logger))
			r.Delete("/{sku}", controllers.DeleteProduct(deps.Catalog, deps.Logger))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.ListInventory(deps.Inventory, deps.Logger))
			r.Post("/receive", controllers.ReceiveStock(deps.Inventory, deps.Logger))
			r.Get("/low-stock", controllers.LowStock(deps.Inventory, deps.Logger))
			r.Get("/{sku}/sources", controllers.StockSources(deps.Inventory, deps.Logger))
		})

		r.Get("/warehouses/{location}/products", controllers.LocationProducts(deps.Inventory, deps.Logger))

		r.Route("/routes", func(r chi.Router) {
			r.Get("/cheapest", controllers.CheapestRoute(deps.Transport, deps.Logger))
			r.Get("/locations", controllers.RouteLocations(deps.Transport, deps.Logger))
		})

		r.Route("/movements", func(r chi.Router) {
			r.Post("/", controllers.MoveStock(deps.Movement, deps.Logger))
			r.Get("/", controllers.MovementHistory(deps.Ledger, deps.Logger))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.PlaceOrder(deps.Orders, deps.Logger))
			r.Get("/", controllers.ListOrders(deps.Orders, deps.Logger))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, deps.Logger))
			r.Delete("/{orderId}", controllers.DeleteOrder(deps.Orders, deps.Logger))
			r.Post("/{orderId}/fulfill", controllers.FulfillOrder(deps.Orders, deps.Fulfillment, deps.Logger))
			r.Post("/{orderId}/dispatch", controllers.DispatchOrder(deps.Fulfillment, deps.Logger))
		})

		r.Route("/forecast", func(r chi.Router) {
			r.Get("/", controllers.ListForecasts(deps.Forecast, deps.Logger))
			r.Post("/", controllers.AddForecast(deps.Forecast, deps.Logger))
			r.Get("/{sku}/coverage", controllers.ForecastCoverage(deps.Forecast, deps.Logger))
		})
	})

	return r
}
