// Package cache holds serialized aggregate responses. Every admin mutation calls
// Invalidate, which retires all entries at once by moving to a new generation.
// Writers read Generation before computing a payload and hand it to Set, so a
// payload computed before an invalidation is never stored after it.
package cache

import (
	"context"
	"sync"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, key string, gen int64, val []byte) error
	Invalidate(ctx context.Context) error
}

type Cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	gen int64
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	return e.val, true, nil
}

func (c *Cache) Generation(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen, nil
}

// Set drops val when gen is no longer the current generation.
func (c *Cache) Set(_ context.Context, key string, gen int64, val []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return nil
	}
	c.m[key] = entry{val: val, exp: c.now().Add(c.ttl)}
	return nil
}

func (c *Cache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.gen++
	c.m = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

// Nop never stores anything. It stands in when caching is disabled.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Generation(context.Context) (int64, error)         { return 0, nil }
func (Nop) Set(context.Context, string, int64, []byte) error  { return nil }
func (Nop) Invalidate(context.Context) error                  { return nil }
