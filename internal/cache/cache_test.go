package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
)

func TestCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	c := New(10 * time.Second)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", 0, []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("expected hit, got %q %v %v", got, ok, err)
	}

	now = now.Add(11 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	_ = c.Set(ctx, "a", 0, []byte("1"))
	_ = c.Set(ctx, "b", 0, []byte("2"))

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	for _, k := range []string{"a", "b"} {
		if _, ok, _ := c.Get(ctx, k); ok {
			t.Fatalf("key %s survived invalidation", k)
		}
	}
}

func TestCache_SetWithStaleGenerationIsDropped(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	gen, err := c.Generation(ctx)
	if err != nil {
		t.Fatalf("generation: %v", err)
	}

	// a mutation lands while the payload is being computed
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if err := c.Set(ctx, "summary", gen, []byte("stale")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "summary"); ok {
		t.Fatalf("payload from a retired generation was stored")
	}

	cur, _ := c.Generation(ctx)
	if cur != gen+1 {
		t.Fatalf("generation did not advance: %d -> %d", gen, cur)
	}
	_ = c.Set(ctx, "summary", cur, []byte("fresh"))
	if got, ok, _ := c.Get(ctx, "summary"); !ok || string(got) != "fresh" {
		t.Fatalf("expected fresh hit, got %q %v", got, ok)
	}
}

func TestFilterKey(t *testing.T) {
	from, _ := metric.ParseDay("2024-01-01")

	a := FilterKey("summary", metric.Filter{From: &from, Category: metric.StringPtr("Books")})
	b := FilterKey("summary", metric.Filter{From: &from, Region: metric.StringPtr("Books")})
	c := FilterKey("trends", metric.Filter{From: &from, Category: metric.StringPtr("Books")})

	if a == b {
		t.Fatalf("category and region must not collide: %s", a)
	}
	if a == c {
		t.Fatalf("endpoints must not collide: %s", a)
	}

	want := "summary:v2:from=2024-01-01:to=:category=Books:region="
	if a != want {
		t.Fatalf("got %s want %s", a, want)
	}

	// values that contain the delimiters must not alias another filter
	forged := FilterKey("summary", metric.Filter{Category: metric.StringPtr("A:region=B")})
	split := FilterKey("summary", metric.Filter{Category: metric.StringPtr("A"), Region: metric.StringPtr("B:region=")})
	if forged == split {
		t.Fatalf("distinct filters share a key: %s", forged)
	}

	spaced := FilterKey("summary", metric.Filter{Category: metric.StringPtr("Home Goods")})
	if spaced != "summary:v2:from=:to=:category=Home+Goods:region=" {
		t.Fatalf("unexpected key %s", spaced)
	}
}

func TestRedisCache_Generation(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	c := NewRedis(RedisConfig{Addr: addr}, time.Minute)
	defer c.Close()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	before, err := c.Generation(ctx)
	if err != nil {
		t.Fatalf("generation: %v", err)
	}

	if err := c.Set(ctx, "summary:test", before, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := c.Get(ctx, "summary:test"); err != nil || !ok {
		t.Fatalf("expected hit, got %v %v", ok, err)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	after, _ := c.Generation(ctx)
	if after != before+1 {
		t.Fatalf("generation did not advance: %d -> %d", before, after)
	}

	if _, ok, _ := c.Get(ctx, "summary:test"); ok {
		t.Fatalf("entry visible after invalidation")
	}

	// a late write from the old generation stays invisible
	_ = c.Set(ctx, "summary:test", before, []byte(`{"ok":false}`))
	if _, ok, _ := c.Get(ctx, "summary:test"); ok {
		t.Fatalf("stale generation write became visible")
	}
}
