package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stockflow-io/stockflow-backend/api/responses"
	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
	"github.com/stockflow-io/stockflow-backend/pkg/logger"
	"github.com/stockflow-io/stockflow-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"

	// Movements replay-protect for a day; fulfillment and dispatch mutate
	// order state, so their records live a week.
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour

	pendingMarker = "__pending__"
)

type idempotencyRule struct {
	method  string
	matcher func(path string) bool
	ttl     time.Duration
}

func matchExact(pattern string) func(string) bool {
	return func(candidate string) bool { return candidate == pattern }
}

func matchPrefixSuffix(prefix, suffix string) func(string) bool {
	return func(candidate string) bool {
		return strings.HasPrefix(candidate, prefix) && strings.HasSuffix(candidate, suffix)
	}
}

var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, matcher: matchExact("/api/v1/movements"), ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, matcher: matchPrefixSuffix("/api/v1/orders/", "/fulfill"), ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, matcher: matchPrefixSuffix("/api/v1/orders/", "/dispatch"), ttl: criticalIdempotencyTTL},
}

// idempotencyRecord is the stored outcome of a completed request.
type idempotencyRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers"`
	RequestHash string            `json:"request_hash"`
}

type responseCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (rc *responseCapture) WriteHeader(code int) {
	rc.status = code
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(p []byte) (int, error) {
	rc.buf.Write(p)
	return rc.ResponseWriter.Write(p)
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// the mutating stock endpoints. A key reused with a different body is
// rejected rather than replayed. Redis outages degrade to pass-through so
// the store never blocks movements.
func Idempotency(store redis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := matchRule(r)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashRequest(r.Method, r.URL.Path, body)
			storageKey := store.IdempotencyKey(buildScope(r), key)

			stored, err := store.Get(ctx, storageKey)
			switch {
			case err == nil:
				replayStored(ctx, logg, w, stored, requestHash)
				return
			case err != goredis.Nil:
				if logg != nil {
					logg.Warn(ctx, "idempotency store unavailable, proceeding without replay protection")
				}
				next.ServeHTTP(w, r)
				return
			}

			acquired, err := store.SetNX(ctx, storageKey, pendingMarker, rule.ttl)
			if err != nil {
				if logg != nil {
					logg.Warn(ctx, "idempotency reservation failed, proceeding without replay protection")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is already in flight"))
				return
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			persistOutcome(ctx, logg, store, storageKey, rule.ttl, capture, requestHash)
		})
	}
}

func matchRule(r *http.Request) (idempotencyRule, bool) {
	for _, rule := range idempotencyRules {
		if rule.method == r.Method && rule.matcher(r.URL.Path) {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

// buildScope keys records per method and concrete path, so the same header
// value on two different orders never collides.
func buildScope(r *http.Request) string {
	return strings.Join([]string{r.Method, r.URL.Path}, "|")
}

func hashRequest(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte("|"))
	sum.Write([]byte(path))
	sum.Write([]byte("|"))
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

func replayStored(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, stored, requestHash string) {
	if stored == pendingMarker {
		responses.WriteError(ctx, logg, w,
			pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is already in flight"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w,
			pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w,
			pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
		return
	}

	payload, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		responses.WriteError(ctx, logg, w,
			pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt idempotency record"))
		return
	}

	for name, value := range record.Headers {
		if value != "" {
			w.Header().Set(name, value)
		}
	}
	w.WriteHeader(record.Status)
	w.Write(payload)
}

func persistOutcome(
	ctx context.Context,
	logg *logger.Logger,
	store redis.IdempotencyStore,
	storageKey string,
	ttl time.Duration,
	capture *responseCapture,
	requestHash string,
) {
	// Server faults are not replayed; drop the reservation so a retry can
	// run the handler again.
	if capture.status >= http.StatusInternalServerError {
		if err := store.Del(ctx, storageKey); err != nil && logg != nil {
			logg.Warn(ctx, "failed to clear idempotency reservation")
		}
		return
	}

	record := idempotencyRecord{
		Status:      capture.status,
		Body:        base64.StdEncoding.EncodeToString(capture.buf.Bytes()),
		Headers:     map[string]string{"Content-Type": capture.Header().Get("Content-Type")},
		RequestHash: requestHash,
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		if logg != nil {
			logg.Error(ctx, "failed to encode idempotency record", err)
		}
		return
	}

	if err := store.Set(ctx, storageKey, string(encoded), ttl); err != nil && logg != nil {
		logg.Warn(ctx, "failed to persist idempotency record")
	}
}
