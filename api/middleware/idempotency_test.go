package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
)

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func newHandler(store *memoryStore, calls *int) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "idempotency-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"call":%d}}`, *calls)
	})
	return Idempotency(store, logg)(inner)
}

func postMovement(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/movements", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	calls := 0
	handler := newHandler(store, &calls)
	body := `{"sku":"A1","origin":"WH1","destination":"WH2","quantity":5,"transportCost":"2"}`

	first := postMovement(handler, "key-1", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first request: got status %d", first.Code)
	}

	second := postMovement(handler, "key-1", body)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: got status %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	calls := 0
	handler := newHandler(store, &calls)

	if rec := postMovement(handler, "key-2", `{"quantity":5}`); rec.Code != http.StatusCreated {
		t.Fatalf("first request: got status %d", rec.Code)
	}
	rec := postMovement(handler, "key-2", `{"quantity":9}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key with new body, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotencySkipsWithoutKeyOrRule(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	calls := 0
	handler := newHandler(store, &calls)

	if rec := postMovement(handler, "", `{}`); rec.Code != http.StatusCreated {
		t.Fatalf("missing key should pass through, got %d", rec.Code)
	}
	if rec := postMovement(handler, "", `{}`); rec.Code != http.StatusCreated {
		t.Fatalf("missing key should pass through, got %d", rec.Code)
	}
	if calls != 2 {
		t.Fatalf("expected handler to run each time without a key, ran %d times", calls)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movements", nil)
	req.Header.Set("Idempotency-Key", "key-3")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if calls != 3 {
		t.Fatalf("GET should bypass idempotency, handler ran %d times", calls)
	}
}

func TestIdempotencyDoesNotReplayServerErrors(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	calls := 0
	logg := logger.New(logger.Options{ServiceName: "idempotency-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	handler := Idempotency(store, logg)(inner)

	if rec := postMovement(handler, "key-4", `{}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("first request: got status %d", rec.Code)
	}
	if rec := postMovement(handler, "key-4", `{}`); rec.Code != http.StatusCreated {
		t.Fatalf("retry after fault should re-run handler, got %d", rec.Code)
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d times", calls)
	}
}
