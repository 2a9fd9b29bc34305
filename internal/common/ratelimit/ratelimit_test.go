package ratelimit

import (
	"context"
	"testing"
	"time"

	"codetrainer/internal/common/cache"
	appErr "codetrainer/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLocalLimiterBurstAndRefill(t *testing.T) {
	l := NewLocalLimiter(1, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Allow(ctx, "ip-a"); err != nil {
			t.Fatalf("attempt %d rejected: %v", i+1, err)
		}
	}
	if err := l.Allow(ctx, "ip-a"); !appErr.Is(err, appErr.TooManyRequests) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if err := l.Allow(ctx, "ip-b"); err != nil {
		t.Fatalf("other key should have its own bucket: %v", err)
	}

	now = now.Add(1100 * time.Millisecond)
	if err := l.Allow(ctx, "ip-a"); err != nil {
		t.Fatalf("expected refill after one second: %v", err)
	}
}

func TestLocalLimiterSweep(t *testing.T) {
	l := NewLocalLimiter(1, 1, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	_ = l.Allow(context.Background(), "old")
	now = now.Add(2 * time.Minute)
	_ = l.Allow(context.Background(), "fresh")

	if removed := l.Sweep(); removed != 1 {
		t.Fatalf("expected one removal, got %d", removed)
	}
	if _, ok := l.visitors["fresh"]; !ok {
		t.Fatalf("fresh visitor should survive")
	}
}

func newRedisLimiter(t *testing.T, max int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	counter, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	return NewRedisLimiter(counter, "rate:", max, window, time.Second), mr
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	l, mr := newRedisLimiter(t, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Allow(ctx, "execute:10.0.0.1"); err != nil {
			t.Fatalf("attempt %d rejected: %v", i+1, err)
		}
	}
	if err := l.Allow(ctx, "execute:10.0.0.1"); !appErr.Is(err, appErr.TooManyRequests) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if got := mr.TTL("rate:execute:10.0.0.1"); got <= 0 {
		t.Fatalf("expected window ttl, got %v", got)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.Allow(ctx, "execute:10.0.0.1"); err != nil {
		t.Fatalf("expected new window: %v", err)
	}
}

func TestRedisLimiterRepairsMissingTTL(t *testing.T) {
	l, mr := newRedisLimiter(t, 5, time.Minute)
	if err := mr.Set("rate:k", "3"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := l.Allow(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if got := mr.TTL("rate:k"); got != time.Minute {
		t.Fatalf("expected ttl repaired, got %v", got)
	}
}

func TestRedisLimiterCacheDown(t *testing.T) {
	l, mr := newRedisLimiter(t, 1, time.Minute)
	mr.Close()
	err := l.Allow(context.Background(), "k")
	if !appErr.Is(err, appErr.CacheError) {
		t.Fatalf("expected cache error, got %v", err)
	}

	var nilLimiter = NewRedisLimiter(nil, "", 1, time.Minute, 0)
	if err := nilLimiter.Allow(context.Background(), "k"); !appErr.Is(err, appErr.ServiceUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
