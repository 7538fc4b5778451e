package orders

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/gutterguard/inventory/internal/cache"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/forecast"
	"github.com/gutterguard/inventory/internal/metrics"
)

// DefaultDays is the trailing window used when a caller passes zero.
const DefaultDays = 180

// ErrNoSource is returned by Refresh when no order source is configured.
var ErrNoSource = errors.New("order source not configured")

// Provider turns shipped orders into component usage summaries. Summaries
// are cached per window and concurrent refreshes of one window share a
// single fetch.
type Provider struct {
	source  Source
	cache   cache.UsageCache
	catalog *config.CatalogStore
	metrics *metrics.Metrics
	now     func() time.Time

	group  singleflight.Group
	mu     sync.RWMutex
	status domain.SyncStatus
}

var _ forecast.UsageProvider = (*Provider)(nil)

// NewProvider accepts a nil source (store front not configured); every
// summary is then zero.
func NewProvider(source Source, usageCache cache.UsageCache, catalog *config.CatalogStore, m *metrics.Metrics, now func() time.Time) *Provider {
	if now == nil {
		now = time.Now
	}
	if usageCache == nil {
		usageCache = cache.NewMemoryUsageCache(time.Hour, now)
	}
	return &Provider{source: source, cache: usageCache, catalog: catalog, metrics: m, now: now}
}

// Summary never fails: any fetch problem is logged and reported as a zero
// summary for the requested window.
func (p *Provider) Summary(ctx context.Context, days int, forceRefresh bool) domain.UsageSummary {
	if days <= 0 {
		days = DefaultDays
	}

	if !forceRefresh {
		cached, ok, err := p.cache.Get(ctx, days)
		if err != nil {
			log.Warn().Err(err).Int("days", days).Msg("orders: usage cache read failed")
		}
		if ok {
			p.metrics.UsageCacheHit()
			return cached
		}
		p.metrics.UsageCacheMiss()
	}

	summary, err := p.Refresh(ctx, days)
	if err != nil {
		if !errors.Is(err, ErrNoSource) {
			p.metrics.OrderFetchFailed()
			log.Warn().Err(err).Int("days", days).Msg("orders: usage summary unavailable, using zero usage")
		}
		return domain.ZeroUsageSummary(days)
	}
	return summary
}

// Refresh fetches orders for the window, rebuilds the summary and caches it.
func (p *Provider) Refresh(ctx context.Context, days int) (domain.UsageSummary, error) {
	if days <= 0 {
		days = DefaultDays
	}
	if p.source == nil {
		return domain.UsageSummary{}, ErrNoSource
	}

	v, err, _ := p.group.Do(strconv.Itoa(days), func() (any, error) {
		now := p.now()
		orders, err := p.source.FetchOrders(ctx, now.AddDate(0, 0, -days))
		if err != nil {
			return nil, err
		}

		summary := Summarize(p.catalog.Get(), orders, days, now)
		if err := p.cache.Set(ctx, days, summary); err != nil {
			log.Warn().Err(err).Int("days", days).Msg("orders: usage cache write failed")
		}

		p.mu.Lock()
		synced := now
		p.status = domain.SyncStatus{LastSynced: &synced, TotalOrders: len(orders), DaysFetched: days}
		p.mu.Unlock()

		log.Info().Int("orders", len(orders)).Int("days", days).Msg("orders: usage summary refreshed")
		return summary, nil
	})
	if err != nil {
		return domain.UsageSummary{}, err
	}
	return v.(domain.UsageSummary), nil
}

func (p *Provider) SyncStatus() domain.SyncStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// InvalidateUsage drops every cached summary. Summaries are built against
// the catalogue's kit mapping, so they go stale when it changes.
func (p *Provider) InvalidateUsage(ctx context.Context) error {
	return p.cache.InvalidateAll(ctx)
}
