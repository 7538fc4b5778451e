package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/gutterguard/inventory/internal/analytics"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/forecast"
	"github.com/gutterguard/inventory/internal/metrics"
	"github.com/gutterguard/inventory/internal/orders"
)

// UsageSource is the order usage provider as the API sees it.
type UsageSource interface {
	Summary(ctx context.Context, days int, forceRefresh bool) domain.UsageSummary
	Refresh(ctx context.Context, days int) (domain.UsageSummary, error)
	SyncStatus() domain.SyncStatus
}

type ForecastService struct {
	engine  *forecast.Engine
	advisor *forecast.Advisor
	stock   forecast.StockReader
	usage   UsageSource
	metrics *metrics.Metrics
}

func NewForecastService(engine *forecast.Engine, advisor *forecast.Advisor, stock forecast.StockReader, usage UsageSource, m *metrics.Metrics) *ForecastService {
	if advisor == nil {
		advisor = forecast.NewAdvisor(forecast.DefaultBufferMonths)
	}
	return &ForecastService{engine: engine, advisor: advisor, stock: stock, usage: usage, metrics: m}
}

func (s *ForecastService) Mesh(ctx context.Context) []domain.MeshForecast {
	fs := s.engine.MeshForecast(ctx)
	s.recordMesh(fs)
	return fs
}

func (s *ForecastService) Components(ctx context.Context, days int, refresh bool) domain.ComponentForecasts {
	cf := s.engine.ComponentForecast(ctx, days, refresh)
	s.recordComponents(cf)
	return cf
}

func (s *ForecastService) Summary(ctx context.Context) domain.SummaryStats {
	return s.engine.SummaryStats(ctx)
}

func (s *ForecastService) Reorder(ctx context.Context) []domain.ReorderSuggestion {
	return s.advisor.Suggest(s.Mesh(ctx))
}

func (s *ForecastService) All(ctx context.Context) forecast.All {
	all := s.engine.All(ctx, s.advisor)
	s.recordMesh(all.Mesh)
	s.recordComponents(all.Components)
	return all
}

func (s *ForecastService) recordMesh(fs []domain.MeshForecast) {
	statuses := make([]domain.Status, len(fs))
	for i, f := range fs {
		statuses[i] = f.Status
	}
	s.metrics.SetForecast(string(domain.CategoryMesh), statuses)
}

func (s *ForecastService) recordComponents(cf domain.ComponentForecasts) {
	groups := map[domain.Category][]domain.ComponentForecast{
		domain.CategorySaddles: cf.Saddles,
		domain.CategoryScrews:  cf.Screws,
		domain.CategoryTrims:   cf.Trims,
		domain.CategoryBoxes:   cf.Boxes,
	}
	for category, fs := range groups {
		statuses := make([]domain.Status, len(fs))
		for i, f := range fs {
			statuses[i] = f.Status
		}
		s.metrics.SetForecast(string(category), statuses)
	}
}

func (s *ForecastService) meshEvents(ctx context.Context, days int) ([]domain.UsageEvent, error) {
	return s.stock.UsageEvents(ctx, domain.CategoryMesh, s.engine.Analytics().Since(days))
}

// UsageByPeriod buckets mesh metres used over the trailing days.
func (s *ForecastService) UsageByPeriod(ctx context.Context, days int, bucket analytics.Bucket) ([]domain.PeriodUsage, error) {
	events, err := s.meshEvents(ctx, days)
	if err != nil {
		return nil, err
	}
	return s.engine.Analytics().UsageByPeriod(events, days, bucket), nil
}

func (s *ForecastService) UsageByProduct(ctx context.Context, days int) ([]domain.ProductUsage, error) {
	events, err := s.meshEvents(ctx, days)
	if err != nil {
		return nil, err
	}
	return s.engine.Analytics().UsageByProduct(events, days), nil
}

// OrderUsage returns the order-derived usage summary. A forced refresh
// reports fetch errors; a plain read degrades to the zero summary.
func (s *ForecastService) OrderUsage(ctx context.Context, days int, refresh bool) (domain.UsageSummary, error) {
	if days <= 0 {
		days = orders.DefaultDays
	}
	if s.usage == nil {
		if refresh {
			return domain.UsageSummary{}, orders.ErrNoSource
		}
		return domain.ZeroUsageSummary(days), nil
	}
	if !refresh {
		return s.usage.Summary(ctx, days, false), nil
	}
	summary, err := s.usage.Refresh(ctx, days)
	if err != nil {
		log.Warn().Err(err).Int("days", days).Msg("orders: refresh failed")
		return domain.UsageSummary{}, err
	}
	return summary, nil
}

func (s *ForecastService) SyncStatus() domain.SyncStatus {
	if s.usage == nil {
		return domain.SyncStatus{}
	}
	return s.usage.SyncStatus()
}
