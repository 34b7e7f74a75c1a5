package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "bidashboard:cache:"
	generationKey = keyPrefix + "generation"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache shares cached aggregates across API replicas and lets the live feed
// worker invalidate them. Keys embed the generation, so Invalidate is a single INCR
// and stale entries simply age out. A Set with an old generation lands under a
// prefix Get no longer reads.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(cfg RedisConfig, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return newRedisCache(rdb, ttl)
}

func newRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) generation(ctx context.Context) (string, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func versionedKey(gen, key string) string {
	return keyPrefix + "g" + gen + ":" + key
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, false, err
	}

	b, err := c.rdb.Get(ctx, versionedKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, gen int64, val []byte) error {
	return c.rdb.Set(ctx, versionedKey(strconv.FormatInt(gen, 10), key), val, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, generationKey).Err()
}

func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(gen, 10, 64)
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
