package cache

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/repository"
	"github.com/leesangmin4533/bgf-dashboard-sub000/pkg/logger"
)

type cachedStatsReader struct {
	inner repository.ItemStatsReader
	cache StatsCache
	log   zerolog.Logger
}

// NewCachedStatsReader wraps an ItemStatsReader with read-through caching.
// Cache failures are logged and fall through to the database; the cache is
// an accelerator, never a dependency.
func NewCachedStatsReader(inner repository.ItemStatsReader, c StatsCache) repository.ItemStatsReader {
	return &cachedStatsReader{
		inner: inner,
		cache: c,
		log:   logger.Component("stats_cache"),
	}
}

func (r *cachedStatsReader) GetItemStats(ctx context.Context, itemCode string) (*domain.ItemStats, error) {
	if stats, ok, err := r.cache.GetItemStats(ctx, itemCode); err != nil {
		r.log.Warn().Err(err).Str("item", itemCode).Msg("cache read failed")
	} else if ok {
		return stats, nil
	}

	stats, err := r.inner.GetItemStats(ctx, itemCode)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetItemStats(ctx, itemCode, stats); err != nil {
		r.log.Warn().Err(err).Str("item", itemCode).Msg("cache write failed")
	}
	return stats, nil
}
