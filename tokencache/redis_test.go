package tokencache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisCache(t *testing.T) (*Redis, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedis(rdb, "tc")

	return cache, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestRedisSetGet(t *testing.T) {
	cache, _, done := newRedisCache(t)
	defer done()
	ctx := context.Background()

	if err := cache.Set(ctx, "k", "tok", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	tok, present, err := cache.Get(ctx, "k")
	if err != nil || !present || tok != "tok" {
		t.Fatalf("get = (%q, %v, %v), want (tok, true, nil)", tok, present, err)
	}
}

func TestRedisExpiry(t *testing.T) {
	cache, mr, done := newRedisCache(t)
	defer done()
	ctx := context.Background()

	if err := cache.Set(ctx, "k", "tok", time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(time.Second)

	if _, present, _ := cache.Get(ctx, "k"); present {
		t.Fatal("expired entry must not be observable")
	}
	if has, _ := cache.Has(ctx, "k"); has {
		t.Fatal("Has must report expired entries as absent")
	}
}

func TestRedisNonPositiveTTLDeletes(t *testing.T) {
	cache, _, done := newRedisCache(t)
	defer done()
	ctx := context.Background()

	_ = cache.Set(ctx, "k", "tok", time.Minute)
	if err := cache.Set(ctx, "k", "tok", 0); err != nil {
		t.Fatalf("zero-ttl set failed: %v", err)
	}
	if _, present, _ := cache.Get(ctx, "k"); present {
		t.Fatal("zero-ttl set must behave like an eviction")
	}
}

func TestRedisClearDropsOnlyOwnPrefix(t *testing.T) {
	cache, mr, done := newRedisCache(t)
	defer done()
	ctx := context.Background()

	_ = cache.Set(ctx, "a", "1", time.Minute)
	_ = cache.Set(ctx, "b", "2", time.Minute)
	mr.Set("other:key", "keep")

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, present, _ := cache.Get(ctx, "a"); present {
		t.Fatal("entry survived Clear")
	}
	if !mr.Exists("other:key") {
		t.Fatal("Clear must not touch keys outside its prefix")
	}
}

func TestRedisUnavailable(t *testing.T) {
	cache, mr, done := newRedisCache(t)
	ctx := context.Background()
	_ = cache.Set(ctx, "k", "tok", time.Minute)

	mr.Close()
	defer done()

	if _, _, err := cache.Get(ctx, "k"); err == nil {
		t.Fatal("expected transport error when redis is down")
	}
}
