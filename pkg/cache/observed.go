package cache

import (
	"context"
	"time"

	"github.com/suratkita/suratkita/pkg/observability"
)

// Observed wraps c so every lookup and store fires the registered
// [observability.CacheHooks].
func Observed(c Cache) Cache {
	if c == nil {
		c = NewNullCache()
	}
	return &observed{inner: c}
}

type observed struct {
	inner Cache
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := o.inner.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, key)
		} else {
			observability.Cache().OnCacheMiss(ctx, key)
		}
	}
	return data, hit, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := o.inner.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
	return nil
}

func (o *observed) Delete(ctx context.Context, key string) error {
	return o.inner.Delete(ctx, key)
}

func (o *observed) Close() error {
	return o.inner.Close()
}
