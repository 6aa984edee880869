package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/stagegraph/pkg/observability"
)

// Instrumented reports cache traffic to hooks, labelled by key type
// ("layout", "artifact").
type Instrumented struct {
	Cache
	hooks observability.CacheHooks
}

// NewInstrumented wraps c. Nil hooks uses the registered cache hooks.
func NewInstrumented(c Cache, hooks observability.CacheHooks) *Instrumented {
	if hooks == nil {
		hooks = observability.Cache()
	}
	return &Instrumented{Cache: c, hooks: hooks}
}

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			c.hooks.OnCacheHit(ctx, keyType(key))
		} else {
			c.hooks.OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		c.hooks.OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

// keyType returns the segment before the hash: "layout" for both
// "layout:<hash>" and "session:1:layout:<hash>".
func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "other"
	}
	return parts[len(parts)-2]
}
