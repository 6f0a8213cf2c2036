package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/config"
	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/domain"
)

const (
	itemStatsKeyPrefix = "order:item_stats"
	statsScanBatchSize = 100
)

// StatsCache holds the per-item statistics the evaluator reads once per
// item per run. Entries expire on TTL; the nightly batch also invalidates
// explicitly after new sales land.
type StatsCache interface {
	GetItemStats(ctx context.Context, itemCode string) (*domain.ItemStats, bool, error)
	SetItemStats(ctx context.Context, itemCode string, stats *domain.ItemStats) error
	InvalidateAll(ctx context.Context) error
}

type redisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopStatsCache struct{}

func NewStatsCache(cfg config.CacheConfig) (StatsCache, error) {
	if !cfg.Enabled {
		return &noopStatsCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisStatsCache{client: client, ttl: ttl}, nil
}

func NewNoopStatsCache() StatsCache {
	return &noopStatsCache{}
}

func (c *redisStatsCache) GetItemStats(ctx context.Context, itemCode string) (*domain.ItemStats, bool, error) {
	payload, err := c.client.Get(ctx, itemStatsKey(itemCode)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var stats domain.ItemStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, false, fmt.Errorf("decode item stats cache: %w", err)
	}
	return &stats, true, nil
}

func (c *redisStatsCache) SetItemStats(ctx context.Context, itemCode string, stats *domain.ItemStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode item stats cache: %w", err)
	}
	if err := c.client.Set(ctx, itemStatsKey(itemCode), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisStatsCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, itemStatsKeyPrefix, statsScanBatchSize)
}

func (n *noopStatsCache) GetItemStats(ctx context.Context, itemCode string) (*domain.ItemStats, bool, error) {
	return nil, false, nil
}

func (n *noopStatsCache) SetItemStats(ctx context.Context, itemCode string, stats *domain.ItemStats) error {
	return nil
}

func (n *noopStatsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func itemStatsKey(itemCode string) string {
	return fmt.Sprintf("%s:%s", itemStatsKeyPrefix, itemCode)
}
