package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
)

const (
	usageKeyPrefix     = "inventory:usage:"
	usageScanBatchSize = 100
)

// UsageCache memoises order usage summaries per trailing window.
type UsageCache interface {
	Get(ctx context.Context, days int) (domain.UsageSummary, bool, error)
	Set(ctx context.Context, days int, summary domain.UsageSummary) error
	InvalidateAll(ctx context.Context) error
}

// NewUsageCache returns a Redis cache when enabled and an in-process cache
// otherwise. Both expire entries after cfg.UsageTTL().
func NewUsageCache(cfg config.CacheConfig) (UsageCache, error) {
	if !cfg.Enabled {
		return NewMemoryUsageCache(cfg.UsageTTL(), nil), nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &redisUsageCache{client: client, ttl: cfg.UsageTTL()}, nil
}

type redisUsageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func usageKey(days int) string {
	return fmt.Sprintf("%s%d", usageKeyPrefix, days)
}

func (c *redisUsageCache) Get(ctx context.Context, days int) (domain.UsageSummary, bool, error) {
	payload, err := c.client.Get(ctx, usageKey(days)).Bytes()
	if err == redis.Nil {
		return domain.UsageSummary{}, false, nil
	}
	if err != nil {
		return domain.UsageSummary{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.UsageSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return domain.UsageSummary{}, false, fmt.Errorf("decode usage summary cache: %w", err)
	}
	return summary, true, nil
}

func (c *redisUsageCache) Set(ctx context.Context, days int, summary domain.UsageSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode usage summary cache: %w", err)
	}
	if err := c.client.Set(ctx, usageKey(days), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisUsageCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, usageKeyPrefix, usageScanBatchSize)
}

type memoryEntry struct {
	summary domain.UsageSummary
	expires time.Time
}

// MemoryUsageCache is the single-process cache used without Redis.
type MemoryUsageCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[int]memoryEntry
}

func NewMemoryUsageCache(ttl time.Duration, now func() time.Time) *MemoryUsageCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryUsageCache{ttl: ttl, now: now, entries: make(map[int]memoryEntry)}
}

func (c *MemoryUsageCache) Get(_ context.Context, days int) (domain.UsageSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[days]
	if !ok {
		return domain.UsageSummary{}, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, days)
		return domain.UsageSummary{}, false, nil
	}
	return e.summary, true, nil
}

func (c *MemoryUsageCache) Set(_ context.Context, days int, summary domain.UsageSummary) error {
	c.mu.Lock()
	c.entries[days] = memoryEntry{summary: summary, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryUsageCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	c.entries = make(map[int]memoryEntry)
	c.mu.Unlock()
	return nil
}
