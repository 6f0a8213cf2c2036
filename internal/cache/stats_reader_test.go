package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

type countingReader struct {
	calls int
	err   error
}

func (r *countingReader) GetItemStats(ctx context.Context, itemCode string) (*domain.ItemStats, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &domain.ItemStats{DailyAvg: 2, ObservedDays30: 30}, nil
}

type mapStatsCache struct {
	entries map[string]*domain.ItemStats
	getErr  error
}

func (c *mapStatsCache) GetItemStats(ctx context.Context, itemCode string) (*domain.ItemStats, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	stats, ok := c.entries[itemCode]
	return stats, ok, nil
}

func (c *mapStatsCache) SetItemStats(ctx context.Context, itemCode string, stats *domain.ItemStats) error {
	c.entries[itemCode] = stats
	return nil
}

func (c *mapStatsCache) InvalidateAll(ctx context.Context) error {
	c.entries = map[string]*domain.ItemStats{}
	return nil
}

func TestCachedStatsReader_ReadThrough(t *testing.T) {
	inner := &countingReader{}
	reader := NewCachedStatsReader(inner, &mapStatsCache{entries: map[string]*domain.ItemStats{}})
	ctx := context.Background()

	first, err := reader.GetItemStats(ctx, "item-1")
	require.NoError(t, err)
	second, err := reader.GetItemStats(ctx, "item-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "second read must come from the cache")
}

func TestCachedStatsReader_CacheErrorFallsThrough(t *testing.T) {
	inner := &countingReader{}
	reader := NewCachedStatsReader(inner, &mapStatsCache{
		entries: map[string]*domain.ItemStats{},
		getErr:  errors.New("redis down"),
	})

	stats, err := reader.GetItemStats(context.Background(), "item-1")
	require.NoError(t, err)
	assert.NotNil(t, stats)
	assert.Equal(t, 1, inner.calls)
}

func TestNoopStatsCache_AlwaysMisses(t *testing.T) {
	c := NewNoopStatsCache()
	ctx := context.Background()

	require.NoError(t, c.SetItemStats(ctx, "item-1", &domain.ItemStats{DailyAvg: 1}))
	_, ok, err := c.GetItemStats(ctx, "item-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
