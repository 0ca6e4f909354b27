package task

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheGenerationKey = "taskboard:gen"

// Cache wraps a Repository with Redis-backed caching for read operations.
// Every write bumps a generation counter that namespaces the cached keys, so a
// reparent never leaves a stale child list behind. Redis failures fall back to
// the backing repository. A failed bump bypasses the cache until a later bump
// succeeds, since entries under the current generation may predate the write.
type Cache struct {
	base  Repository
	redis *redis.Client
	ttl   time.Duration
	stale atomic.Bool
}

var _ Repository = (*Cache)(nil)

// NewCache creates a caching Repository using the provided Redis client and TTL.
func NewCache(base Repository, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("task.NewCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) CreateTask(ctx context.Context, in NewTask) (Record, error) {
	defer c.bump(ctx)
	return c.base.CreateTask(ctx, in)
}

func (c *Cache) SetComplete(ctx context.Context, id string, complete bool) error {
	defer c.bump(ctx)
	return c.base.SetComplete(ctx, id, complete)
}

func (c *Cache) SetParent(ctx context.Context, id, parentID string) error {
	defer c.bump(ctx)
	return c.base.SetParent(ctx, id, parentID)
}

func (c *Cache) Delete(ctx context.Context, id string) error {
	defer c.bump(ctx)
	return c.base.Delete(ctx, id)
}

func (c *Cache) CreateTag(ctx context.Context, name, color string) (Tag, error) {
	defer c.bump(ctx)
	return c.base.CreateTag(ctx, name, color)
}

func (c *Cache) Task(ctx context.Context, id string) (Record, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		return c.base.Task(ctx, id)
	}
	key := cacheKey(gen, "task:"+id)
	var rec Record
	if c.load(ctx, key, &rec) {
		return rec, nil
	}
	rec, err := c.base.Task(ctx, id)
	if err != nil {
		return Record{}, err
	}
	c.store(ctx, key, rec)
	return rec, nil
}

func (c *Cache) Roots(ctx context.Context) ([]Record, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		return c.base.Roots(ctx)
	}
	key := cacheKey(gen, "roots")
	var roots []Record
	if c.load(ctx, key, &roots) {
		return roots, nil
	}
	roots, err := c.base.Roots(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, roots)
	return roots, nil
}

func (c *Cache) Tags(ctx context.Context) ([]Tag, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		return c.base.Tags(ctx)
	}
	key := cacheKey(gen, "tags")
	var tags []Tag
	if c.load(ctx, key, &tags) {
		return tags, nil
	}
	tags, err := c.base.Tags(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, tags)
	return tags, nil
}

// generation returns the current cache namespace; ok is false when caching is
// unavailable for this call.
func (c *Cache) generation(ctx context.Context) (int64, bool) {
	if c.redis == nil || c.ttl == 0 || c.stale.Load() {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, cacheGenerationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		log.Warn().Err(err).Msg("task cache: read generation")
		return 0, false
	}
	return gen, true
}

func (c *Cache) bump(ctx context.Context) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, cacheGenerationKey).Err(); err != nil {
		c.stale.Store(true)
		log.Warn().Err(err).Msg("task cache: bump generation, bypassing cache")
		return
	}
	c.stale.Store(false)
}

func (c *Cache) load(ctx context.Context, key string, v any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func cacheKey(gen int64, suffix string) string {
	return fmt.Sprintf("taskboard:%d:%s", gen, suffix)
}
