package extract

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xymaxim/vpick/internal/cache"
	"github.com/xymaxim/vpick/internal/info"
)

// DefaultCacheTTL is short because media URLs in the metadata expire.
const DefaultCacheTTL = 5 * time.Minute

// CachedProvider decorates a Provider with a metadata cache and coalesces
// concurrent extractions of the same URL into a single call.
type CachedProvider struct {
	Provider Provider
	Cache    cache.Cache
	TTL      time.Duration

	group singleflight.Group
}

// NewCachedProvider wraps p. A nil cache disables caching but keeps the
// coalescing.
func NewCachedProvider(p Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	if c == nil {
		c = cache.Nop{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{Provider: p, Cache: c, TTL: ttl}
}

func (p *CachedProvider) Extract(ctx context.Context, url string) (*info.Metadata, error) {
	key := cache.Key(url)

	var cached info.Metadata
	if p.Cache.Get(ctx, key, &cached) {
		slog.Debug("metadata cache hit", "url", url)
		return &cached, nil
	}

	// The shared call must not be cancelled by whichever caller started it;
	// the wrapped provider bounds it with its own timeout.
	ch := p.group.DoChan(key, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		metadata, err := p.Provider.Extract(detached, url)
		if err != nil {
			return nil, err
		}
		p.Cache.Set(detached, key, metadata, p.TTL)
		return metadata, nil
	})

	select {
	case <-ctx.Done():
		return nil, &ExtractionError{URL: url, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			slog.Debug("coalesced concurrent extraction", "url", url)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*info.Metadata), nil
	}
}
