package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values  map[string]string
	counts  map[string]int64
	expires map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:  map[string]string{},
		counts:  map[string]int64{},
		expires: map[string]time.Duration{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	f.values[key] = value.(string)
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	if v, ok := f.values[key]; ok {
		return goredis.NewStringResult(v, nil)
	}
	return goredis.NewStringResult("", goredis.Nil)
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Incr(ctx context.Context, key string) *goredis.IntCmd {
	f.counts[key]++
	return goredis.NewIntResult(f.counts[key], nil)
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *goredis.BoolCmd {
	f.expires[key] = ttl
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	return goredis.NewIntResult(removed, nil)
}

func TestKeyBuilders(t *testing.T) {
	t.Parallel()

	c := &Client{store: newFakeStore()}
	if got := c.IdempotencyKey("POST|/api/v1/movements", "abc"); got != "sf:idempotency:POST|/api/v1/movements:abc" {
		t.Fatalf("unexpected idempotency key: %s", got)
	}
	if got := c.RateLimitKey("movements"); got != "sf:rate_limit:movements" {
		t.Fatalf("unexpected rate limit key: %s", got)
	}
	if got := c.CounterKey("orders"); got != "sf:counter:orders" {
		t.Fatalf("unexpected counter key: %s", got)
	}
}

func TestSetNXIsFirstWriterWins(t *testing.T) {
	t.Parallel()

	c := &Client{store: newFakeStore()}
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "k", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX should win: ok=%v err=%v", ok, err)
	}
	ok, err = c.SetNX(ctx, "k", "second", time.Minute)
	if err != nil || ok {
		t.Fatalf("second SetNX should lose: ok=%v err=%v", ok, err)
	}
	v, err := c.Get(ctx, "k")
	if err != nil || v != "first" {
		t.Fatalf("expected first value to survive, got %q err=%v", v, err)
	}
}

func TestFixedWindowAllow(t *testing.T) {
	t.Parallel()

	fake := newFakeStore()
	c := &Client{store: fake}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := c.FixedWindowAllow(ctx, "scope", 3, time.Minute)
		if err != nil || !allowed {
			t.Fatalf("request %d should be allowed: %v", i, err)
		}
	}
	allowed, count, err := c.FixedWindowAllow(ctx, "scope", 3, time.Minute)
	if err != nil {
		t.Fatalf("fixed window: %v", err)
	}
	if allowed || count != 4 {
		t.Fatalf("expected fourth request denied with count 4, got allowed=%v count=%d", allowed, count)
	}
	if fake.expires[c.RateLimitKey("scope")] != time.Minute {
		t.Fatal("expected TTL set on first increment")
	}
}
