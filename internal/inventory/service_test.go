package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	"github.com/stockflow-io/stockflow-backend/pkg/enums"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
)

type fakeProducts struct {
	known map[string]bool
}

func (f *fakeProducts) GetProduct(ctx context.Context, sku string) (*models.Product, error) {
	if f.known[sku] {
		return &models.Product{SKU: sku, Name: "Widget"}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %q not found", sku))
}

func TestReceiveNormalizesAndCredits(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, &fakeProducts{known: map[string]bool{"A1": true}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if err := svc.Receive(ctx, ReceiveInput{SKU: "  a1 ", Location: "WH1", Quantity: 10}); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := svc.Receive(ctx, ReceiveInput{SKU: "A1", Location: "WH1", Quantity: 4}); err != nil {
		t.Fatalf("second receive: %v", err)
	}

	record, err := repo.Get(ctx, "A1", "WH1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Quantity != 14 {
		t.Fatalf("expected 14 on hand, got %d", record.Quantity)
	}
}

func TestReceiveRegistersLocationAsWarehouse(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, &fakeProducts{known: map[string]bool{"A1": true}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if err := svc.Receive(ctx, ReceiveInput{SKU: "A1", Location: "WH9", Quantity: 50}); err != nil {
		t.Fatalf("receive: %v", err)
	}

	var location models.Location
	if err := db.First(&location, "name = ?", "WH9").Error; err != nil {
		t.Fatalf("expected locations row for WH9: %v", err)
	}
	if location.Kind != enums.LocationKindWarehouse {
		t.Fatalf("expected warehouse kind, got %s", location.Kind)
	}

	sources, err := svc.Sources(ctx, "A1")
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 1 || sources[0].Location != "WH9" {
		t.Fatalf("received stock must be shippable, got %v", sources)
	}

	// A location that already has an explicit kind keeps it.
	seedLocation(t, db, "Retail Hub North", enums.LocationKindRetailHub)
	if err := svc.Receive(ctx, ReceiveInput{SKU: "A1", Location: "Retail Hub North", Quantity: 5}); err != nil {
		t.Fatalf("receive at hub: %v", err)
	}
	var hub models.Location
	if err := db.First(&hub, "name = ?", "Retail Hub North").Error; err != nil {
		t.Fatalf("load hub: %v", err)
	}
	if hub.Kind != enums.LocationKindRetailHub {
		t.Fatalf("hub kind must survive receive, got %s", hub.Kind)
	}
}

func TestReceiveRejectsBadInput(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), &fakeProducts{known: map[string]bool{"A1": true}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	cases := []ReceiveInput{
		{SKU: "", Location: "WH1", Quantity: 1},
		{SKU: "A1", Location: " ", Quantity: 1},
		{SKU: "A1", Location: "WH1", Quantity: 0},
		{SKU: "A1", Location: "WH1", Quantity: -3},
	}
	for _, input := range cases {
		if err := svc.Receive(ctx, input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("input %+v: expected validation error, got %v", input, err)
		}
	}

	if err := svc.Receive(ctx, ReceiveInput{SKU: "GHOST", Location: "WH1", Quantity: 1}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}
