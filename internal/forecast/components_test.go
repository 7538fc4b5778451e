package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/domain"
)

func count(qty int) domain.StockCount { return domain.StockCount{ID: "x", Quantity: qty} }

func componentStock() *fakeStock {
	return &fakeStock{
		saddles: []domain.SaddleRecord{
			{StockCount: count(100), SaddleType: "corrugated", Colour: "Monument"},
			{StockCount: count(0), SaddleType: "trimdek", Colour: "Surfmist"},
		},
		trims: []domain.TrimRecord{
			{StockCount: count(300), Colour: "Monument"},
		},
		screws: []domain.ScrewRecord{
			{StockCount: count(1000), ScrewType: "saddle_screw", Colour: "Monument"},
			{StockCount: count(500), ScrewType: "mesh_screw", Colour: "Monument"},
			{StockCount: count(100), ScrewType: "tek_screw", Colour: "Basalt"},
		},
		boxes: []domain.BoxRecord{
			{StockCount: count(30), BoxType: "small_tube"},
			{StockCount: count(10), BoxType: "satchel"},
			{StockCount: count(1), BoxType: "saddle_box"},
		},
		coils: []domain.Coil{
			{ID: "c1", SaddleType: "corrugated", Colour: "Monument", InitialWeightKg: 200, CurrentWeightKg: 100, Status: domain.CoilInUse},
			{ID: "c2", SaddleType: "trim", Colour: "Monument", InitialWeightKg: 10, CurrentWeightKg: 10, Status: domain.CoilInStock},
			{ID: "c3", SaddleType: "corrugated", Colour: "Basalt", InitialWeightKg: 200, CurrentWeightKg: 0, Status: domain.CoilDepleted},
		},
	}
}

func componentUsage() *fixedUsage {
	return &fixedUsage{summary: domain.UsageSummary{
		OrderCount: 90,
		DailyAvg: map[string]float64{
			domain.UsageSaddles:      10,
			domain.UsageTrims:        2,
			domain.UsageSaddleScrews: 50,
			domain.UsageTrimScrews:   5,
			domain.UsageMeshScrews:   0,
		},
	}}
}

func byType(fs []domain.ComponentForecast, typ, colour string) *domain.ComponentForecast {
	for i := range fs {
		if fs[i].Type == typ && fs[i].Colour == colour {
			return &fs[i]
		}
	}
	return nil
}

func TestComponentForecast_Saddles(t *testing.T) {
	got := newTestEngine(componentStock(), componentUsage(), Options{}).ComponentForecast(context.Background(), 180, false)

	require.Len(t, got.Saddles, 2, "zero stock skipped, one live coil")
	shelf := byType(got.Saddles, "corrugated", "Monument")
	require.NotNil(t, shelf)
	assert.Equal(t, domain.StatusCritical, shelf.Status)
	require.NotNil(t, shelf.DaysRemaining)
	assert.InDelta(t, 10.0, *shelf.DaysRemaining, 1e-9)
	assert.Equal(t, 14.0, shelf.LeadTimeDays)

	coil := byType(got.Saddles, domain.ComponentTypeCoilYield, "Monument")
	require.NotNil(t, coil)
	assert.Equal(t, domain.StatusCoil, coil.Status)
	assert.Equal(t, 4818, coil.CurrentStock)
	assert.Equal(t, "c1", coil.CoilID)
	require.NotNil(t, coil.DaysRemaining)
	assert.InDelta(t, 482.0, *coil.DaysRemaining, 1e-9)
	assert.Equal(t, domain.StatusCoil, got.Saddles[1].Status, "coil entries sort last")
}

func TestComponentForecast_TrimCoilsGoUnderTrims(t *testing.T) {
	got := newTestEngine(componentStock(), componentUsage(), Options{}).ComponentForecast(context.Background(), 180, false)

	require.Len(t, got.Trims, 2)
	shelf := byType(got.Trims, "trim", "Monument")
	require.NotNil(t, shelf)
	assert.Equal(t, domain.StatusOK, shelf.Status)

	coil := byType(got.Trims, domain.ComponentTypeCoilYield, "Monument")
	require.NotNil(t, coil)
	assert.Equal(t, 84, coil.CurrentStock)
	assert.Equal(t, "trims", coil.Unit)
}

func TestComponentForecast_ScrewUsageKeys(t *testing.T) {
	got := newTestEngine(componentStock(), componentUsage(), Options{}).ComponentForecast(context.Background(), 180, false)

	saddle := byType(got.Screws, "saddle_screw", "Monument")
	require.NotNil(t, saddle)
	assert.Equal(t, domain.UsageSaddleScrews, saddle.UsageKey)
	assert.Equal(t, domain.StatusLow, saddle.Status)

	mesh := byType(got.Screws, "mesh_screw", "Monument")
	require.NotNil(t, mesh)
	assert.Equal(t, domain.StatusNoUsage, mesh.Status)
	assert.Nil(t, mesh.DaysRemaining)

	unknown := byType(got.Screws, "tek_screw", "Basalt")
	require.NotNil(t, unknown)
	assert.Equal(t, domain.UsageSaddleScrews, unknown.UsageKey)
	assert.Equal(t, domain.StatusCritical, unknown.Status)
}

func TestComponentForecast_BoxRatios(t *testing.T) {
	got := newTestEngine(componentStock(), componentUsage(), Options{}).ComponentForecast(context.Background(), 180, false)

	small := byType(got.Boxes, "small_tube", "")
	require.NotNil(t, small)
	assert.InDelta(t, 0.25, small.DailyUsage, 1e-9)
	assert.Equal(t, domain.StatusOK, small.Status)

	unknown := byType(got.Boxes, "satchel", "")
	require.NotNil(t, unknown)
	require.NotNil(t, unknown.DaysRemaining)
	assert.InDelta(t, 61.0, *unknown.DaysRemaining, 1e-9)

	saddleBox := byType(got.Boxes, "saddle_box", "")
	require.NotNil(t, saddleBox)
	assert.Equal(t, domain.StatusOrderNow, saddleBox.Status)
}

func TestComponentForecast_NoOrderDataIsNoUsage(t *testing.T) {
	got := newTestEngine(componentStock(), nil, Options{}).ComponentForecast(context.Background(), 90, false)

	assert.Equal(t, 90, got.Usage.PeriodDays)
	for _, f := range got.All() {
		if f.Type == domain.ComponentTypeCoilYield {
			assert.Equal(t, domain.StatusCoil, f.Status)
			continue
		}
		assert.Equal(t, domain.StatusNoUsage, f.Status, "%s %s", f.Type, f.Colour)
	}
}

func TestComponentForecast_FailedCategoryIsSkipped(t *testing.T) {
	stock := componentStock()
	stock.failing = map[string]bool{"screws": true, "coils": true}

	got := newTestEngine(stock, componentUsage(), Options{}).ComponentForecast(context.Background(), 180, false)

	assert.Empty(t, got.Screws)
	assert.Len(t, got.Saddles, 1)
	assert.Len(t, got.Boxes, 3)
}

func TestComponentForecast_EveryLoaderFailureIsEmpty(t *testing.T) {
	stock := componentStock()
	stock.failing = map[string]bool{"saddles": true, "trims": true, "boxes": true, "coils": true}

	got := newTestEngine(stock, componentUsage(), Options{}).ComponentForecast(context.Background(), 180, false)

	assert.Empty(t, got.Saddles)
	assert.Empty(t, got.Trims)
	assert.Empty(t, got.Boxes)
	assert.Len(t, got.Screws, 3)
}
