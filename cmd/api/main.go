package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stockflow-io/stockflow-backend/api/routes"
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
	"github.com/stockflow-io/stockflow-backend/pkg/metrics"
	"github.com/stockflow-io/stockflow-backend/pkg/migrate"
	"github.com/stockflow-io/stockflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	movementMetrics := metrics.NewMovementMetrics(registry)

	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	inventoryRepo := inventory.NewRepository(conn)
	transportRepo := transport.NewRepository(conn)
	ledgerRepo := logistics.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	forecastRepo := forecast.NewRepository(conn)

	catalogSvc, err := catalog.NewService(catalogRepo, inventoryRepo, dbClient)
	requireService(logg, "catalog", err)

	inventorySvc, err := inventory.NewService(inventoryRepo, catalogRepo)
	requireService(logg, "inventory", err)

	movementSvc, err := movement.NewService(dbClient, inventoryRepo, ledgerRepo, cfg.Movement, logg, movementMetrics)
	requireService(logg, "movement", err)

	ordersSvc, err := orders.NewService(ordersRepo, catalogRepo)
	requireService(logg, "orders", err)

	fulfillmentSvc, err := fulfillment.NewService(ordersRepo, inventoryRepo, transportRepo, movementSvc, logg, movementMetrics)
	requireService(logg, "fulfillment", err)

	forecastSvc, err := forecast.NewService(forecastRepo, inventoryRepo)
	requireService(logg, "forecast", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.New(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Registry:    registry,
			Catalog:     catalogSvc,
			Inventory:   inventorySvc,
			Transport:   transportRepo,
			Movement:    movementSvc,
			Ledger:      ledgerRepo,
			Orders:      ordersSvc,
			Fulfillment: fulfillmentSvc,
			Forecast:    forecastSvc,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
