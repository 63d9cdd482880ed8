package controllers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stockflow-io/stockflow-backend/internal/catalog"
	"github.com/stockflow-io/stockflow-backend/internal/inventory"
	"github.com/stockflow-io/stockflow-backend/pkg/db"
	"github.com/stockflow-io/stockflow-backend/pkg/db/models"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newProductsRouter(t *testing.T) http.Handler {
	t.Helper()

	dsn := "file:controllers_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.InventoryRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := catalog.NewService(catalog.NewRepository(conn), inventory.NewRepository(conn), db.FromGorm(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "controllers-test", Level: zerolog.ErrorLevel, Output: io.Discard})

	r := chi.NewRouter()
	r.Post("/products", CreateProduct(svc, logg))
	r.Get("/products", ListProducts(svc, logg))
	r.Get("/products/{sku}", GetProduct(svc, logg))
	r.Put("/products/{sku}", UpdateProduct(svc, logg))
	r.Delete("/products/{sku}", DeleteProduct(svc, logg))
	return r
}

func doJSON(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestProductLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	router := newProductsRouter(t)

	rec := doJSON(router, http.MethodPost, "/products", `{"sku":"widget-9","name":"Widget","threshold":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"sku":"WIDGET-9"`) {
		t.Fatalf("expected normalized sku in response, got %s", rec.Body.String())
	}

	if rec := doJSON(router, http.MethodPost, "/products", `{"sku":"WIDGET-9","name":"Widget"}`); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate sku: got %d", rec.Code)
	}

	if rec := doJSON(router, http.MethodGet, "/products/widget-9", ""); rec.Code != http.StatusOK {
		t.Fatalf("get: got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodGet, "/products/GHOST", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing sku: got %d", rec.Code)
	}

	rec = doJSON(router, http.MethodPut, "/products/WIDGET-9", `{"threshold":12}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"threshold":12`) {
		t.Fatalf("update: got %d body %s", rec.Code, rec.Body.String())
	}

	if rec := doJSON(router, http.MethodDelete, "/products/WIDGET-9", ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodGet, "/products/WIDGET-9", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: got %d", rec.Code)
	}
}

func TestCreateProductRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	router := newProductsRouter(t)
	rec := doJSON(router, http.MethodPost, "/products", `{"sku":"A1","name":"A","color":"red"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: got %d body %s", rec.Code, rec.Body.String())
	}
}
