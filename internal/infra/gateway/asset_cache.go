package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"

	"github.com/foodielens/dishbook/internal/domain"
	"github.com/foodielens/dishbook/internal/usecase"
)

const memcacheKeyPrefix = "asset:"

// AssetCache fronts an AssetIndex with an in-process cache and, when configured,
// a shared memcached tier. Asset entries never change once saved, so only hits
// are cached and nothing is ever invalidated.
type AssetCache struct {
	next   usecase.AssetIndex
	local  *cache.Cache
	shared *memcache.Client
	ttl    time.Duration
}

// NewAssetCache wraps next. shared may be nil.
func NewAssetCache(next usecase.AssetIndex, shared *memcache.Client, ttl time.Duration) *AssetCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AssetCache{
		next:   next,
		local:  cache.New(ttl, ttl+5*time.Minute),
		shared: shared,
		ttl:    ttl,
	}
}

func (c *AssetCache) Lookup(ctx context.Context, hash string) (domain.Asset, bool, error) {
	if cached, found := c.local.Get(hash); found {
		return cached.(domain.Asset), true, nil
	}

	if asset, ok := c.fromShared(ctx, hash); ok {
		c.local.Set(hash, asset, cache.DefaultExpiration)
		return asset, true, nil
	}

	asset, found, err := c.next.Lookup(ctx, hash)
	if err != nil || !found {
		return asset, found, err
	}

	c.remember(ctx, asset)
	return asset, true, nil
}

func (c *AssetCache) Save(ctx context.Context, asset domain.Asset) error {
	if err := c.next.Save(ctx, asset); err != nil {
		return err
	}
	// the index keeps the first entry, so read it back rather than caching ours
	stored, found, err := c.next.Lookup(ctx, asset.ContentHash)
	if err == nil && found {
		c.remember(ctx, stored)
	}
	return nil
}

func (c *AssetCache) remember(ctx context.Context, asset domain.Asset) {
	c.local.Set(asset.ContentHash, asset, cache.DefaultExpiration)
	if c.shared == nil {
		return
	}

	value, err := json.Marshal(asset)
	if err != nil {
		return
	}
	err = c.shared.Set(&memcache.Item{
		Key:        memcacheKeyPrefix + asset.ContentHash,
		Value:      value,
		Expiration: int32(c.ttl / time.Second),
	})
	if err != nil {
		slog.WarnContext(ctx, "memcached set failed",
			slog.String("error", err.Error()),
			slog.String("module", "gateway"),
		)
	}
}

func (c *AssetCache) fromShared(ctx context.Context, hash string) (domain.Asset, bool) {
	if c.shared == nil {
		return domain.Asset{}, false
	}

	item, err := c.shared.Get(memcacheKeyPrefix + hash)
	if err != nil {
		if err != memcache.ErrCacheMiss {
			slog.WarnContext(ctx, "memcached get failed",
				slog.String("error", err.Error()),
				slog.String("module", "gateway"),
			)
		}
		return domain.Asset{}, false
	}

	var asset domain.Asset
	if err := json.Unmarshal(item.Value, &asset); err != nil || asset.ContentHash != hash {
		return domain.Asset{}, false
	}
	return asset, true
}

var _ usecase.AssetIndex = (*AssetCache)(nil)
