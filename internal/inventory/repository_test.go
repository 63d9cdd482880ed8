package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	"github.com/stockflow-io/stockflow-backend/pkg/enums"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCreditInsertsThenIncrements(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	if err := repo.Credit(ctx, "A1", "WH1", 10); err != nil {
		t.Fatalf("first credit: %v", err)
	}
	if err := repo.Credit(ctx, "A1", "WH1", 5); err != nil {
		t.Fatalf("second credit: %v", err)
	}

	record, err := repo.Get(ctx, "A1", "WH1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Quantity != 15 {
		t.Fatalf("expected quantity 15, got %d", record.Quantity)
	}
}

func TestDebitGuardsAvailability(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)
	seedRecord(t, db, "A1", "WH1", 10)

	if err := repo.Debit(ctx, "A1", "WH1", 7); err != nil {
		t.Fatalf("debit: %v", err)
	}

	err := repo.Debit(ctx, "A1", "WH1", 7)
	if err == nil {
		t.Fatal("expected over-debit to fail")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeConcurrentModification) {
		t.Fatalf("unexpected error: %v", err)
	}

	record, err := repo.Get(ctx, "A1", "WH1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Quantity != 3 {
		t.Fatalf("expected quantity 3 after failed over-debit, got %d", record.Quantity)
	}
}

func TestLockOriginMissingRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.LockOrigin(context.Background(), "A1", "NOWHERE")
	if err == nil {
		t.Fatal("expected origin not found")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeOriginNotFound) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListSourcesOrdersAndFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	seedLocation(t, db, "WH1", enums.LocationKindWarehouse)
	seedLocation(t, db, "WH2", enums.LocationKindWarehouse)
	seedLocation(t, db, "WH3", enums.LocationKindWarehouse)
	seedLocation(t, db, "Retail Hub North", enums.LocationKindRetailHub)

	seedRecord(t, db, "A1", "WH2", 30)
	seedRecord(t, db, "A1", "WH1", 50)
	seedRecord(t, db, "A1", "WH3", 30)
	seedRecord(t, db, "A1", "Retail Hub North", 99)
	seedRecord(t, db, "A1", "EmptyWH", 0)
	seedRecord(t, db, "B2", "WH1", 12)

	sources, err := repo.ListSources(ctx, "A1")
	if err != nil {
		t.Fatalf("list sources: %v", err)
	}
	want := []SourceStock{
		{Location: "WH1", Quantity: 50},
		{Location: "WH2", Quantity: 30},
		{Location: "WH3", Quantity: 30},
	}
	if len(sources) != len(want) {
		t.Fatalf("expected %d sources, got %v", len(want), sources)
	}
	for i := range want {
		if sources[i] != want[i] {
			t.Fatalf("source %d: expected %+v, got %+v", i, want[i], sources[i])
		}
	}
}

func TestListSourcesIncludesUnregisteredLocations(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	// WH9 has stock but nobody registered it in the locations table. It must
	// still ship, or stock received at a brand-new site is stranded.
	seedRecord(t, db, "A1", "WH9", 50)
	seedLocation(t, db, "Retail Hub North", enums.LocationKindRetailHub)
	seedRecord(t, db, "A1", "Retail Hub North", 40)

	sources, err := repo.ListSources(ctx, "A1")
	if err != nil {
		t.Fatalf("list sources: %v", err)
	}
	if len(sources) != 1 || sources[0].Location != "WH9" || sources[0].Quantity != 50 {
		t.Fatalf("expected WH9 as the only source, got %v", sources)
	}
}

func TestRegisterLocationFirstWriterWins(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	if err := repo.RegisterLocation(ctx, "WH1", enums.LocationKindWarehouse); err != nil {
		t.Fatalf("register: %v", err)
	}

	seedLocation(t, db, "Retail Hub North", enums.LocationKindRetailHub)
	if err := repo.RegisterLocation(ctx, "Retail Hub North", enums.LocationKindWarehouse); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	var hub models.Location
	if err := db.First(&hub, "name = ?", "Retail Hub North").Error; err != nil {
		t.Fatalf("load location: %v", err)
	}
	if hub.Kind != enums.LocationKindRetailHub {
		t.Fatalf("explicit kind must survive re-registration, got %s", hub.Kind)
	}
}

func TestLowStockExcludesSellThroughPoints(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	seedProduct(t, db, "A1", "Widget", 20)
	seedProduct(t, db, "B2", "Gadget", 5)
	seedLocation(t, db, "Retail Hub North", enums.LocationKindRetailHub)
	seedLocation(t, db, "WH1", enums.LocationKindWarehouse)

	seedRecord(t, db, "A1", "WH1", 10)
	seedRecord(t, db, "A1", "Retail Hub North", 1)
	seedRecord(t, db, "B2", "WH1", 50)

	rows, err := repo.LowStock(ctx)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 low stock row, got %v", rows)
	}
	if rows[0].SKU != "A1" || rows[0].Location != "WH1" || rows[0].Threshold != 20 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestTotalOnHand(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	seedRecord(t, db, "A1", "WH1", 10)
	seedRecord(t, db, "A1", "WH2", 25)

	total, err := repo.TotalOnHand(ctx, "A1")
	if err != nil {
		t.Fatalf("total on hand: %v", err)
	}
	if total != 35 {
		t.Fatalf("expected 35, got %d", total)
	}

	total, err = repo.TotalOnHand(ctx, "MISSING")
	if err != nil {
		t.Fatalf("total on hand missing sku: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected 0 for unknown sku, got %d", total)
	}
}

func TestDeleteBySKU(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	seedRecord(t, db, "A1", "WH1", 10)
	seedRecord(t, db, "A1", "WH2", 5)
	seedRecord(t, db, "B2", "WH1", 7)

	if err := repo.DeleteBySKU(ctx, "A1"); err != nil {
		t.Fatalf("delete by sku: %v", err)
	}

	var count int64
	if err := db.Model(&models.InventoryRecord{}).Where("sku = ?", "A1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no A1 rows, got %d", count)
	}
	if _, err := repo.Get(ctx, "B2", "WH1"); err != nil {
		t.Fatalf("unrelated sku should survive: %v", err)
	}
}

func seedRecord(t *testing.T, db *gorm.DB, sku, location string, quantity int) {
	t.Helper()
	record := models.InventoryRecord{SKU: sku, Location: location, Quantity: quantity}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
}

func seedLocation(t *testing.T, db *gorm.DB, name string, kind enums.LocationKind) {
	t.Helper()
	if err := db.Create(&models.Location{Name: name, Kind: kind}).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
}

func seedProduct(t *testing.T, db *gorm.DB, sku, name string, threshold int) {
	t.Helper()
	if err := db.Create(&models.Product{SKU: sku, Name: name, Threshold: threshold}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Location{}, &models.InventoryRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
