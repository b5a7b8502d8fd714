package cache

import (
	"context"
	"time"

	"github.com/cooketh/flow/pkg/observability"
)

// Instrument reports hits, misses and writes on c to the registered
// [observability.CacheHooks], labeled by [KeyType].
func Instrument(c Cache) Cache {
	return &instrumented{next: c}
}

type instrumented struct {
	next Cache
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.next.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.next.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

func (c *instrumented) Delete(ctx context.Context, key string) error { return c.next.Delete(ctx, key) }

func (c *instrumented) Close() error { return c.next.Close() }
