package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/metrics"
)

// CachedOwnerResolver memoizes username to owner-id lookups.
// The mapping never changes once a user exists, so entries only need a TTL
// to bound memory. Unknown usernames are never cached.
type CachedOwnerResolver struct {
	next   OwnerResolver
	cache  Cache
	ttl    time.Duration
	keys   CacheKey
	logger zerolog.Logger
}

// NewCachedOwnerResolver wraps next with cache.
func NewCachedOwnerResolver(next OwnerResolver, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedOwnerResolver {
	return &CachedOwnerResolver{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "owner_cache").Logger(),
	}
}

// FindOwnerIDByUsername returns the cached id or resolves and caches it.
// Cache failures fall through to the underlying resolver.
func (r *CachedOwnerResolver) FindOwnerIDByUsername(ctx context.Context, username string) (domain.UserID, error) {
	key := r.keys.OwnerID(username)

	cached, err := r.cache.Get(ctx, key)
	switch {
	case err == nil && len(cached) > 0:
		metrics.OwnerCacheTotal.WithLabelValues("hit").Inc()
		return domain.UserID(cached), nil
	case err == nil || errors.Is(err, ErrCacheMiss):
		metrics.OwnerCacheTotal.WithLabelValues("miss").Inc()
	default:
		metrics.OwnerCacheTotal.WithLabelValues("error").Inc()
		r.logger.Warn().Err(err).Msg("owner cache lookup failed")
	}

	id, err := r.next.FindOwnerIDByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	if err := r.cache.Set(ctx, key, []byte(id), r.ttl); err != nil {
		r.logger.Warn().Err(err).Msg("failed to cache owner id")
	}

	return id, nil
}

// Ensure CachedOwnerResolver implements OwnerResolver.
var _ OwnerResolver = (*CachedOwnerResolver)(nil)
