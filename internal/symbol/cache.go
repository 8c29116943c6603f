package symbol

import (
	"context"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// Cache stores generated symbols by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

// Key derives the cache key of a request. Generation is a pure function of
// payload and size, so the key never needs invalidation.
func Key(payload string, sizePx int) string {
	h := blake2b.Sum256([]byte(payload + "|" + strconv.Itoa(sizePx)))
	return "symbol:" + hex.EncodeToString(h[:])
}

// MemoryCache keeps a bounded number of entries, evicting the oldest first.
type MemoryCache struct {
	mu    sync.Mutex
	max   int
	items map[string][]byte
	order []string
}

func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = 256
	}
	return &MemoryCache{max: size, items: make(map[string][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, val []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		c.order = append(c.order, key)
	}
	c.items[key] = val
	for len(c.order) > c.max {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
	return nil
}

// redisCmdable is the part of *redis.Client the cache uses.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache stores symbols in Redis with a TTL.
type RedisCache struct {
	rdb redisCmdable
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte) error {
	return c.rdb.Set(ctx, key, val, c.ttl).Err()
}

// Cached puts a Cache in front of a Generator. Cache errors are logged and
// otherwise ignored.
type Cached struct {
	next   Generator
	cache  Cache
	logger logging.Logger
}

func NewCached(next Generator, cache Cache, logger logging.Logger) *Cached {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Cached{next: next, cache: cache, logger: logger.With("module", "symbol")}
}

func (c *Cached) Symbol(ctx context.Context, payload string, sizePx int) ([]byte, error) {
	key := Key(payload, sizePx)
	b, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "symbol cache read failed", "error", err)
	} else if ok {
		c.logger.Debug(ctx, "symbol cache hit", "key", key)
		return b, nil
	}

	b, err = c.next.Symbol(ctx, payload, sizePx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, b); err != nil {
		c.logger.Warn(ctx, "symbol cache write failed", "error", err)
	}
	return b, nil
}
