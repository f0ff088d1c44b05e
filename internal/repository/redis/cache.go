package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache keeps query results as JSON. Nothing is ever invalidated: keys carry
// the engine namespace, so a commit moves readers to fresh keys and the old
// entries age out by TTL.
type Cache struct {
	rdb   *redis.Client
	loads singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	return b, true, nil
}

// cached decodes the entry under key. A corrupt entry counts as a miss and is
// overwritten by the next load.
func cached[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var out T

	b, ok, err := c.get(ctx, key)
	if err != nil || !ok {
		return out, false
	}

	if err := json.Unmarshal(b, &out); err != nil {
		return out, false
	}

	return out, true
}

func (c *Cache) put(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// GetOrSetJSON returns the value cached under key, or runs loader and caches
// its result for ttl. Concurrent misses on one key share a single load, which
// is not cancelled when one of the waiting callers goes away. A nil cache
// always loads, and redis failures fall back to the loader. Loader errors are
// never cached.
//
// Parameters:
//   - ctx: request-scoped context.
//   - c: the cache, may be nil.
//   - key: full key, see the Key* helpers.
//   - ttl: lifetime of a stored entry.
//   - loader: computes the value on a miss.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	const op = "repository.redis.GetOrSetJSON"

	if c == nil {
		return loader(ctx)
	}

	if v, ok := cached[T](ctx, c, key); ok {
		return v, nil
	}

	shared, err, _ := c.loads.Do(key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)

		if v, ok := cached[T](lctx, c, key); ok {
			return v, nil
		}

		v, err := loader(lctx)
		if err != nil {
			return nil, err
		}

		// a failed write only costs the next reader a load
		_ = c.put(lctx, key, v, ttl)

		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := shared.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: unexpected %T under %s", op, shared, key)
	}

	return v, nil
}
