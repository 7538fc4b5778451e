package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
)

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type fakeStock struct {
	rolls    []domain.MeshRoll
	incoming []domain.IncomingOrder
	usage    []domain.UsageEvent
	screws   []domain.ScrewRecord
	saddles  []domain.SaddleRecord
	trims    []domain.TrimRecord
	boxes    []domain.BoxRecord
	coils    []domain.Coil
	updated  time.Time
	failing  map[string]bool
}

var errUnavailable = errors.New("collection unavailable")

func (f *fakeStock) fail(name string) error {
	if f.failing[name] {
		return errUnavailable
	}
	return nil
}

func (f *fakeStock) MeshRolls(context.Context) ([]domain.MeshRoll, error) {
	return f.rolls, f.fail("mesh")
}

func (f *fakeStock) IncomingOrders(context.Context) ([]domain.IncomingOrder, error) {
	return f.incoming, f.fail("incoming")
}

func (f *fakeStock) UsageEvents(_ context.Context, _ domain.Category, since time.Time) ([]domain.UsageEvent, error) {
	if err := f.fail("usage"); err != nil {
		return nil, err
	}
	var out []domain.UsageEvent
	for _, e := range f.usage {
		if !e.Date.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStock) Screws(context.Context) ([]domain.ScrewRecord, error) {
	return f.screws, f.fail("screws")
}

func (f *fakeStock) Saddles(context.Context) ([]domain.SaddleRecord, error) {
	return f.saddles, f.fail("saddles")
}

func (f *fakeStock) Trims(context.Context) ([]domain.TrimRecord, error) {
	return f.trims, f.fail("trims")
}

func (f *fakeStock) Boxes(context.Context) ([]domain.BoxRecord, error) {
	return f.boxes, f.fail("boxes")
}

func (f *fakeStock) Coils(_ context.Context, filter domain.CoilFilter) ([]domain.Coil, error) {
	var out []domain.Coil
	for _, c := range f.coils {
		if filter.Match(c) {
			out = append(out, c)
		}
	}
	return out, f.fail("coils")
}

func (f *fakeStock) LastUpdated(context.Context, domain.Category) (time.Time, error) {
	return f.updated, nil
}

type fixedUsage struct {
	summary domain.UsageSummary
	calls   int
}

func (u *fixedUsage) Summary(_ context.Context, days int, _ bool) domain.UsageSummary {
	u.calls++
	s := u.summary
	s.PeriodDays = days
	return s
}

func roll(width int, colour string, qty int, length float64) domain.MeshRoll {
	return domain.MeshRoll{ID: colour, MeshType: "4mm_aluminium", WidthMM: width, LengthM: length, Colour: colour, Quantity: qty}
}

func used(daysAgo, width int, colour string, qty int, length float64) domain.UsageEvent {
	return domain.UsageEvent{
		Date:     testNow.AddDate(0, 0, -daysAgo),
		Category: domain.CategoryMesh,
		Type:     "4mm_aluminium",
		WidthMM:  width,
		LengthM:  length,
		Colour:   colour,
		Quantity: qty,
		Reason:   "order",
	}
}

func newTestEngine(stock StockReader, usage UsageProvider, opts Options) *Engine {
	return NewEngine(stock, usage, config.NewStaticCatalogStore(config.DefaultCatalog()), opts, clock)
}

func findMesh(t *testing.T, fs []domain.MeshForecast, width int, colour string) domain.MeshForecast {
	t.Helper()
	for _, f := range fs {
		if f.WidthMM == width && f.Colour == colour {
			return f
		}
	}
	t.Fatalf("no forecast for %dmm %s", width, colour)
	return domain.MeshForecast{}
}

func TestMeshForecast_ShortRunwayIsCritical(t *testing.T) {
	stock := &fakeStock{
		rolls: []domain.MeshRoll{roll(250, "Monument", 2, 10)},
		usage: []domain.UsageEvent{
			used(2, 250, "Monument", 4, 10),
			used(10, 250, "Monument", 3, 20),
		},
	}
	e := newTestEngine(stock, nil, Options{MeshWindowDays: 30})

	f := findMesh(t, e.MeshForecast(context.Background()), 250, "Monument")

	assert.Equal(t, domain.StatusCritical, f.Status)
	assert.InDelta(t, 20.0, f.CurrentMetres, 1e-9)
	assert.InDelta(t, 3.33, f.AvgDailyUsage, 1e-9)
	assert.InDelta(t, 100.0, f.AvgMonthlyUsage, 1e-9)
	require.NotNil(t, f.MonthsRemaining)
	assert.InDelta(t, 0.2, *f.MonthsRemaining, 1e-9)
	require.NotNil(t, f.DaysRemaining)
	assert.InDelta(t, 6.0, *f.DaysRemaining, 1e-9)
	assert.Equal(t, 4.0, f.LeadTimeMonths)
}

func TestMeshForecast_DefaultWindowStillCritical(t *testing.T) {
	stock := &fakeStock{
		rolls: []domain.MeshRoll{roll(250, "Monument", 2, 10)},
		usage: []domain.UsageEvent{used(5, 250, "Monument", 10, 10)},
	}
	f := findMesh(t, newTestEngine(stock, nil, Options{}).MeshForecast(context.Background()), 250, "Monument")

	assert.Equal(t, domain.StatusCritical, f.Status)
	require.NotNil(t, f.MonthsRemaining)
	assert.InDelta(t, 1.2, *f.MonthsRemaining, 1e-9)
}

func TestMeshForecast_NoUsage(t *testing.T) {
	stock := &fakeStock{
		rolls: []domain.MeshRoll{roll(250, "Monument", 2, 10)},
		usage: []domain.UsageEvent{used(200, 250, "Monument", 10, 10)},
	}
	f := findMesh(t, newTestEngine(stock, nil, Options{}).MeshForecast(context.Background()), 250, "Monument")

	assert.Equal(t, domain.StatusNoUsage, f.Status)
	assert.Nil(t, f.DaysRemaining)
	assert.Nil(t, f.MonthsRemaining)
	assert.Zero(t, f.AvgDailyUsage)
}

func TestMeshForecast_UsageWithoutStockIsReported(t *testing.T) {
	stock := &fakeStock{
		usage: []domain.UsageEvent{used(3, 500, "Surfmist", 1, 20)},
	}
	f := findMesh(t, newTestEngine(stock, nil, Options{}).MeshForecast(context.Background()), 500, "Surfmist")

	assert.Equal(t, domain.StatusCritical, f.Status)
	require.NotNil(t, f.DaysRemaining)
	assert.Zero(t, *f.DaysRemaining)
	assert.Zero(t, f.CurrentMetres)
}

func TestMeshForecast_LengthsMergeIntoOneProduct(t *testing.T) {
	stock := &fakeStock{
		rolls: []domain.MeshRoll{
			roll(250, "Monument", 2, 10),
			roll(250, "Monument", 1, 30),
		},
	}
	fs := newTestEngine(stock, nil, Options{}).MeshForecast(context.Background())

	require.Len(t, fs, 1)
	assert.Equal(t, 3, fs[0].CurrentRolls)
	assert.InDelta(t, 50.0, fs[0].CurrentMetres, 1e-9)
}

func TestMeshForecast_SortOrder(t *testing.T) {
	stock := &fakeStock{
		rolls: []domain.MeshRoll{
			roll(250, "Idle", 5, 10),
			roll(250, "Plenty", 100, 30),
			roll(250, "Low", 1, 27),
			roll(250, "Empty", 0, 10),
			roll(250, "Short", 2, 10),
		},
		usage: []domain.UsageEvent{
			used(1, 250, "Plenty", 1, 30),
			used(1, 250, "Low", 3, 10),
			used(1, 250, "Empty", 3, 10),
			used(1, 250, "Short", 3, 10),
		},
	}
	fs := newTestEngine(stock, nil, Options{}).MeshForecast(context.Background())

	var colours []string
	for _, f := range fs {
		colours = append(colours, f.Colour)
	}
	assert.Equal(t, []string{"Empty", "Short", "Low", "Plenty", "Idle"}, colours)
	assert.Equal(t, domain.StatusCritical, fs[0].Status)
	assert.Equal(t, domain.StatusOrderNow, fs[1].Status)
	assert.Equal(t, domain.StatusLow, fs[2].Status)
	assert.Equal(t, domain.StatusOK, fs[3].Status)
	assert.Equal(t, domain.StatusNoUsage, fs[4].Status)
}

func TestMeshForecast_IncomingMetres(t *testing.T) {
	stock := &fakeStock{
		rolls: []domain.MeshRoll{roll(250, "Monument", 1, 10)},
		incoming: []domain.IncomingOrder{
			{MeshType: "4mm_aluminium", WidthMM: 250, Colour: "Monument", LengthM: 30, Quantity: 2, Status: domain.IncomingOrdered},
			{MeshType: "4mm_aluminium", WidthMM: 250, Colour: "Monument", LengthM: 30, Quantity: 5, Status: domain.IncomingReceived},
		},
	}
	f := findMesh(t, newTestEngine(stock, nil, Options{}).MeshForecast(context.Background()), 250, "Monument")
	assert.InDelta(t, 60.0, f.IncomingMetres, 1e-9)
}

func TestMeshForecast_UnavailableStoreDegrades(t *testing.T) {
	stock := &fakeStock{
		rolls:   []domain.MeshRoll{roll(250, "Monument", 2, 10)},
		failing: map[string]bool{"usage": true, "incoming": true},
	}
	fs := newTestEngine(stock, nil, Options{}).MeshForecast(context.Background())

	require.Len(t, fs, 1)
	assert.Equal(t, domain.StatusNoUsage, fs[0].Status)
}

func TestSummaryStats(t *testing.T) {
	updated := testNow.Add(-time.Hour)
	stock := &fakeStock{
		rolls: []domain.MeshRoll{
			roll(250, "Monument", 2, 10),
			roll(250, "Monument", 1, 30),
			roll(500, "Surfmist", 4, 20),
			roll(750, "Basalt", 0, 20),
		},
		usage: []domain.UsageEvent{
			used(3, 250, "Monument", 2, 10),
			used(20, 500, "Surfmist", 1, 20),
			used(90, 500, "Surfmist", 20, 20),
		},
		incoming: []domain.IncomingOrder{
			{MeshType: "4mm_aluminium", WidthMM: 750, Colour: "Basalt", LengthM: 20, Quantity: 3, Status: domain.IncomingOrdered},
		},
		updated: updated,
	}
	usage := &fixedUsage{summary: domain.UsageSummary{OrderCount: 42}}

	stats := newTestEngine(stock, usage, Options{}).SummaryStats(context.Background())

	assert.Equal(t, 7, stats.TotalRolls)
	assert.InDelta(t, 130.0, stats.TotalMetres, 1e-9)
	assert.Equal(t, 2, stats.UniqueProducts)
	assert.Equal(t, 30, stats.UsageRecentDays)
	assert.InDelta(t, 40.0, stats.UsageRecentMetres, 1e-9)
	assert.InDelta(t, 60.0, stats.IncomingMetres, 1e-9)
	// Monument: 50m at 20m/180d lasts 15 months; Surfmist: 80m at 420m/180d
	// lasts about 1.1 months.
	assert.Equal(t, 1, stats.CriticalItems)
	assert.Equal(t, 0, stats.LowStockItems)
	require.NotNil(t, stats.LastUpdated)
	assert.Equal(t, updated, *stats.LastUpdated)
	assert.Equal(t, 42, stats.OrdersAnalyzed)
}

func TestSummaryStats_WithoutUsageProvider(t *testing.T) {
	stats := newTestEngine(&fakeStock{}, nil, Options{}).SummaryStats(context.Background())
	assert.Zero(t, stats.OrdersAnalyzed)
	assert.Nil(t, stats.LastUpdated)
}
