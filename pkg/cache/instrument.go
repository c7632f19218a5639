package cache

import (
	"context"
	"time"

	"github.com/matzehuels/docmap/pkg/observability"
	"github.com/matzehuels/docmap/pkg/retry"
)

// Instrument reports every Get and Set on c to observability.CacheHooks.
// Transient backend errors are retried with retry.WithBackoff.
func Instrument(c Cache) Cache {
	if c == nil {
		c = NewNullCache()
	}
	if _, ok := c.(*instrumented); ok {
		return c
	}
	return &instrumented{Cache: c}
}

type instrumented struct {
	Cache
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data []byte
		hit  bool
	)
	err := retry.WithBackoff(ctx, func() error {
		var err error
		data, hit, err = c.Cache.Get(ctx, key)
		return err
	})
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := retry.WithBackoff(ctx, func() error {
		return c.Cache.Set(ctx, key, data, ttl)
	})
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

// Clear forwards to the wrapped cache when it is a Clearer.
func (c *instrumented) Clear(ctx context.Context) (int, error) {
	if cl, ok := c.Cache.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return 0, nil
}
