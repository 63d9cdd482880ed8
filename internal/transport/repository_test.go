package transport

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	"github.com/stockflow-io/stockflow-backend/pkg/enums"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCheapestRoutePicksMinimumCost(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	seedRoutes(t, db,
		models.Route{Origin: "WH1", Destination: "Dallas", Cost: decimal.NewFromFloat(4.5)},
		models.Route{Origin: "WH1", Destination: "Dallas", Cost: decimal.NewFromFloat(2.25)},
		models.Route{Origin: "WH1", Destination: "Dallas", Cost: decimal.NewFromFloat(3)},
		models.Route{Origin: "WH2", Destination: "Dallas", Cost: decimal.NewFromFloat(1)},
	)

	repo := NewRepository(db)
	route, err := repo.CheapestRoute(ctx, "WH1", "Dallas")
	if err != nil {
		t.Fatalf("cheapest route: %v", err)
	}
	if !route.Cost.Equal(decimal.NewFromFloat(2.25)) {
		t.Fatalf("expected cost 2.25, got %s", route.Cost)
	}
}

func TestCheapestRouteNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.CheapestRoute(context.Background(), "WH1", "Nowhere")
	if err == nil {
		t.Fatal("expected route not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRouteNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListOriginsAndDestinations(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	seedRoutes(t, db,
		models.Route{Origin: "WH2", Destination: "Dallas", Cost: decimal.NewFromInt(1)},
		models.Route{Origin: "WH1", Destination: "Dallas", Cost: decimal.NewFromInt(2)},
		models.Route{Origin: "WH1", Destination: "Austin", Cost: decimal.NewFromInt(3)},
		models.Route{Origin: "Retail Hub North", Destination: "Dallas", Cost: decimal.NewFromInt(1)},
	)
	if err := db.Create(&models.Location{Name: "Retail Hub North", Kind: enums.LocationKindRetailHub}).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}

	repo := NewRepository(db)

	// WH1 and WH2 are unregistered and count as warehouses; the retail hub
	// never ships.
	origins, err := repo.ListOrigins(ctx)
	if err != nil {
		t.Fatalf("list origins: %v", err)
	}
	if len(origins) != 2 || origins[0] != "WH1" || origins[1] != "WH2" {
		t.Fatalf("unexpected origins: %v", origins)
	}

	destinations, err := repo.ListDestinations(ctx)
	if err != nil {
		t.Fatalf("list destinations: %v", err)
	}
	if len(destinations) != 2 || destinations[0] != "Austin" || destinations[1] != "Dallas" {
		t.Fatalf("unexpected destinations: %v", destinations)
	}

	toDallas, err := repo.ListOriginsTo(ctx, "Dallas", "")
	if err != nil {
		t.Fatalf("list origins to: %v", err)
	}
	if len(toDallas) != 2 || toDallas[0] != "WH1" || toDallas[1] != "WH2" {
		t.Fatalf("unexpected origins to Dallas: %v", toDallas)
	}
}

func TestListOriginsToNarrowsBySKUStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	seedRoutes(t, db,
		models.Route{Origin: "WH1", Destination: "Dallas", Cost: decimal.NewFromInt(2)},
		models.Route{Origin: "WH2", Destination: "Dallas", Cost: decimal.NewFromInt(1)},
		models.Route{Origin: "WH3", Destination: "Dallas", Cost: decimal.NewFromInt(3)},
	)
	for _, record := range []models.InventoryRecord{
		{SKU: "A1", Location: "WH1", Quantity: 10},
		{SKU: "A1", Location: "WH2", Quantity: 0},
		{SKU: "B2", Location: "WH3", Quantity: 5},
	} {
		if err := db.Create(&record).Error; err != nil {
			t.Fatalf("seed inventory: %v", err)
		}
	}

	repo := NewRepository(db)

	// WH2 holds zero units and WH3 holds a different SKU; only WH1 can ship A1.
	origins, err := repo.ListOriginsTo(ctx, "Dallas", "A1")
	if err != nil {
		t.Fatalf("list origins to: %v", err)
	}
	if len(origins) != 1 || origins[0] != "WH1" {
		t.Fatalf("expected only WH1 to hold A1, got %v", origins)
	}
}

func seedRoutes(t *testing.T, db *gorm.DB, routes ...models.Route) {
	t.Helper()
	for i := range routes {
		if err := db.Create(&routes[i]).Error; err != nil {
			t.Fatalf("seed route: %v", err)
		}
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:transport_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Route{}, &models.Location{}, &models.InventoryRecord{}); err != nil {
		t.Fatalf("migrate routes: %v", err)
	}
	return db
}
