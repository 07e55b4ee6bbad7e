package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type summary struct {
	Total int     `json:"total"`
	Avg   float64 `json:"avg"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "analytics", ttl), mr
}

func TestSetThenGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "a1b2c3d4", summary{Total: 3, Avg: 41.7}); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got summary
	if err := c.Get(ctx, "a1b2c3d4", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Total != 3 || got.Avg != 41.7 {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestGetAfterExpiryIsMiss(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", summary{Total: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	var got summary
	if err := c.Get(ctx, "k", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestDeletePrefix(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, "tenant1:all", summary{Total: 1})
	_ = c.Set(ctx, "tenant1:2024-01-01", summary{Total: 2})
	_ = c.Set(ctx, "tenant2:all", summary{Total: 3})

	if err := c.DeletePrefix(ctx, "tenant1:"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if mr.Exists("analytics:tenant1:all") || mr.Exists("analytics:tenant1:2024-01-01") {
		t.Fatal("expected tenant1 keys to be removed")
	}
	if !mr.Exists("analytics:tenant2:all") {
		t.Fatal("expected tenant2 key to remain")
	}
}
