package forecast

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gutterguard/inventory/internal/analytics"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/numeric"
)

// StockReader is the read side of the inventory store.
type StockReader interface {
	MeshRolls(ctx context.Context) ([]domain.MeshRoll, error)
	IncomingOrders(ctx context.Context) ([]domain.IncomingOrder, error)
	UsageEvents(ctx context.Context, category domain.Category, since time.Time) ([]domain.UsageEvent, error)
	Screws(ctx context.Context) ([]domain.ScrewRecord, error)
	Saddles(ctx context.Context) ([]domain.SaddleRecord, error)
	Trims(ctx context.Context) ([]domain.TrimRecord, error)
	Boxes(ctx context.Context) ([]domain.BoxRecord, error)
	Coils(ctx context.Context, filter domain.CoilFilter) ([]domain.Coil, error)
	LastUpdated(ctx context.Context, category domain.Category) (time.Time, error)
}

// UsageProvider supplies order-derived component usage. Implementations
// return a zero summary rather than an error when orders are unavailable.
type UsageProvider interface {
	Summary(ctx context.Context, days int, forceRefresh bool) domain.UsageSummary
}

// Options holds the trailing windows, kept separate on purpose: the mesh
// runway uses a long window while the dashboard shows recent usage.
type Options struct {
	MeshWindowDays      int
	RecentWindowDays    int
	ComponentWindowDays int
}

func DefaultOptions() Options {
	return Options{MeshWindowDays: 180, RecentWindowDays: 30, ComponentWindowDays: 180}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MeshWindowDays <= 0 {
		o.MeshWindowDays = d.MeshWindowDays
	}
	if o.RecentWindowDays <= 0 {
		o.RecentWindowDays = d.RecentWindowDays
	}
	if o.ComponentWindowDays <= 0 {
		o.ComponentWindowDays = d.ComponentWindowDays
	}
	return o
}

// Engine derives forecasts from snapshots of the stock store and the order
// usage summary. Nothing it returns is persisted.
type Engine struct {
	stock     StockReader
	usage     UsageProvider
	catalog   *config.CatalogStore
	analytics *analytics.UsageAnalytics
	opts      Options
	now       func() time.Time
}

func NewEngine(stock StockReader, usage UsageProvider, catalog *config.CatalogStore, opts Options, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		stock:     stock,
		usage:     usage,
		catalog:   catalog,
		analytics: analytics.New(now),
		opts:      opts.withDefaults(),
		now:       now,
	}
}

func (e *Engine) Options() Options { return e.opts }

// Analytics exposes the usage aggregator bound to the engine clock.
func (e *Engine) Analytics() *analytics.UsageAnalytics { return e.analytics }

// MeshForecast returns one entry per (type, width, colour) seen in stock or
// in the mesh usage window.
func (e *Engine) MeshForecast(ctx context.Context) []domain.MeshForecast {
	cat := e.catalog.Get()
	rolls := e.loadRolls(ctx)
	events := e.loadUsage(ctx, e.opts.MeshWindowDays)
	incoming := e.loadIncoming(ctx)
	return e.meshForecasts(cat, rolls, events, incoming)
}

type meshStock struct {
	rolls  int
	metres float64
}

func (e *Engine) meshForecasts(cat *config.Catalog, rolls []domain.MeshRoll, events []domain.UsageEvent, incoming []domain.IncomingOrder) []domain.MeshForecast {
	var keys []domain.ProductKey
	seen := make(map[domain.ProductKey]bool)
	addKey := func(k domain.ProductKey) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	stock := make(map[domain.ProductKey]meshStock)
	for _, r := range rolls {
		k := r.Product()
		s := stock[k]
		s.rolls += r.Quantity
		s.metres += r.Metres()
		stock[k] = s
		addKey(k)
	}

	rates := e.analytics.DailyRates(events, e.opts.MeshWindowDays)
	for _, ev := range events {
		if _, ok := rates[ev.Product()]; ok {
			addKey(ev.Product())
		}
	}

	onOrder := make(map[domain.ProductKey]float64)
	for _, o := range incoming {
		if o.Status == domain.IncomingOrdered {
			onOrder[domain.ProductKey{MeshType: o.MeshType, WidthMM: o.WidthMM, Colour: o.Colour}] += o.Metres()
		}
	}

	out := make([]domain.MeshForecast, 0, len(keys))
	for _, k := range keys {
		s := stock[k]
		daily := rates[k]
		if !numeric.Finite(s.metres) || !numeric.Finite(daily) {
			log.Warn().Str("product", k.String()).Msg("forecast: skipping mesh product with invalid figures")
			continue
		}

		lead := cat.MeshLeadTimeMonths(k.MeshType)
		cls := Classify(s.metres, daily, MonthsLead(lead))

		f := domain.MeshForecast{
			MeshType:        k.MeshType,
			MeshName:        cat.MeshName(k.MeshType),
			WidthMM:         k.WidthMM,
			Colour:          k.Colour,
			CurrentRolls:    s.rolls,
			CurrentMetres:   numeric.Round(s.metres, 1),
			IncomingMetres:  numeric.Round(onOrder[k], 1),
			AvgDailyUsage:   numeric.Round(daily, 2),
			AvgMonthlyUsage: numeric.Round(daily*config.DaysPerMonth, 1),
			LeadTimeMonths:  lead,
			Status:          cls.Status,
		}
		if cls.Remaining != nil {
			days := *cls.Remaining * config.DaysPerMonth
			f.DaysRemaining = numeric.RoundPtr(&days, 0)
			f.MonthsRemaining = numeric.RoundPtr(cls.Remaining, 1)
		}
		out = append(out, f)
	}

	sortMeshForecasts(out)
	return out
}

// meshGroup puts urgent entries first, then OK, then NO_USAGE.
func meshGroup(s domain.Status) int {
	switch s {
	case domain.StatusOK:
		return 1
	case domain.StatusNoUsage:
		return 2
	default:
		return 0
	}
}

func lessRemaining(a, b *float64) (less, equal bool) {
	switch {
	case a == nil && b == nil:
		return false, true
	case a == nil:
		return false, false
	case b == nil:
		return true, false
	case *a == *b:
		return false, true
	default:
		return *a < *b, false
	}
}

func sortMeshForecasts(fs []domain.MeshForecast) {
	sort.SliceStable(fs, func(i, j int) bool {
		gi, gj := meshGroup(fs[i].Status), meshGroup(fs[j].Status)
		if gi != gj {
			return gi < gj
		}
		if less, equal := lessRemaining(fs[i].DaysRemaining, fs[j].DaysRemaining); !equal {
			return less
		}
		return fs[i].Product().String() < fs[j].Product().String()
	})
}

// SummaryStats reports stock totals, recent usage and how many mesh
// products need attention.
func (e *Engine) SummaryStats(ctx context.Context) domain.SummaryStats {
	cat := e.catalog.Get()
	rolls := e.loadRolls(ctx)
	window := max(e.opts.MeshWindowDays, e.opts.RecentWindowDays)
	events := e.loadUsage(ctx, window)
	incoming := e.loadIncoming(ctx)

	stats := domain.SummaryStats{UsageRecentDays: e.opts.RecentWindowDays}
	products := make(map[domain.ProductKey]bool)
	for _, r := range rolls {
		stats.TotalRolls += r.Quantity
		stats.TotalMetres += r.Metres()
		if r.Quantity > 0 {
			products[r.Product()] = true
		}
	}
	stats.TotalMetres = numeric.Round(stats.TotalMetres, 1)
	stats.UniqueProducts = len(products)
	stats.UsageRecentMetres = numeric.Round(e.analytics.TotalMetres(events, e.opts.RecentWindowDays), 1)

	for _, o := range incoming {
		if o.Status == domain.IncomingOrdered {
			stats.IncomingMetres += o.Metres()
		}
	}
	stats.IncomingMetres = numeric.Round(stats.IncomingMetres, 1)

	for _, f := range e.meshForecasts(cat, rolls, events, incoming) {
		switch f.Status {
		case domain.StatusCritical, domain.StatusOrderNow:
			stats.CriticalItems++
		case domain.StatusLow:
			stats.LowStockItems++
		}
	}

	if ts, err := e.stock.LastUpdated(ctx, domain.CategoryMesh); err != nil {
		log.Warn().Err(err).Msg("forecast: read mesh last updated failed")
	} else if !ts.IsZero() {
		stats.LastUpdated = &ts
	}

	stats.OrdersAnalyzed = e.usageSummary(ctx, e.opts.ComponentWindowDays, false).OrderCount
	return stats
}

// All bundles every forecast view for dashboards and exports.
type All struct {
	Mesh       []domain.MeshForecast      `json:"mesh"`
	Components domain.ComponentForecasts  `json:"components"`
	Reorder    []domain.ReorderSuggestion `json:"reorder_suggestions"`
	Summary    domain.SummaryStats        `json:"summary"`
}

func (e *Engine) All(ctx context.Context, advisor *Advisor) All {
	mesh := e.MeshForecast(ctx)
	return All{
		Mesh:       mesh,
		Components: e.ComponentForecast(ctx, e.opts.ComponentWindowDays, false),
		Reorder:    advisor.Suggest(mesh),
		Summary:    e.SummaryStats(ctx),
	}
}

func (e *Engine) usageSummary(ctx context.Context, days int, refresh bool) domain.UsageSummary {
	if e.usage == nil {
		return domain.ZeroUsageSummary(days)
	}
	return e.usage.Summary(ctx, days, refresh)
}

// The loaders below degrade to empty data: a missing collection must still
// produce NO_USAGE forecasts rather than an error.

func (e *Engine) loadRolls(ctx context.Context) []domain.MeshRoll {
	rolls, err := e.stock.MeshRolls(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("forecast: load mesh rolls failed")
		return nil
	}
	return rolls
}

func (e *Engine) loadUsage(ctx context.Context, days int) []domain.UsageEvent {
	events, err := e.stock.UsageEvents(ctx, domain.CategoryMesh, e.analytics.Since(days))
	if err != nil {
		log.Warn().Err(err).Msg("forecast: load mesh usage failed")
		return nil
	}
	return events
}

func (e *Engine) loadIncoming(ctx context.Context) []domain.IncomingOrder {
	orders, err := e.stock.IncomingOrders(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("forecast: load incoming orders failed")
		return nil
	}
	return orders
}
