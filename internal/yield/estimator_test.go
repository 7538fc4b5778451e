package yield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/config"
)

func newEstimator(t *testing.T) *Estimator {
	t.Helper()
	return NewEstimator(config.NewStaticCatalogStore(config.DefaultCatalog()))
}

func TestEstimate_CorrugatedCoil(t *testing.T) {
	got := newEstimator(t).Estimate(100, "corrugated")

	assert.InDelta(t, 73.0, got.UsableKg, 1e-9)
	assert.InDelta(t, 27.0, got.WasteKg, 1e-9)
	assert.Equal(t, 4818, got.ExpectedOutput)
	assert.Equal(t, "saddles", got.OutputUnit)
}

func TestEstimate_TrimCoilUsesTypeParams(t *testing.T) {
	got := newEstimator(t).Estimate(10, "trim")

	assert.InDelta(t, 10.0, got.UsableKg, 1e-9)
	assert.Equal(t, 84, got.ExpectedOutput)
	assert.Equal(t, "trims", got.OutputUnit)
}

func TestEstimate_UnknownTypeFallsBackToProductionDefaults(t *testing.T) {
	got := newEstimator(t).Estimate(50, "klip_lok")

	assert.InDelta(t, 66.0, got.YieldPerKg, 1e-9)
	assert.InDelta(t, 27.0, got.WastePercent, 1e-9)
	assert.Equal(t, "saddles", got.OutputUnit)
}

func TestEstimate_PartialTypeOverride(t *testing.T) {
	cat := config.DefaultCatalog()
	y := 70.0
	cat.SaddleTypes["custom"] = config.SaddleType{YieldPerKg: &y}
	e := NewEstimator(config.NewStaticCatalogStore(cat))

	p := e.Params("custom")
	assert.InDelta(t, 70.0, p.YieldPerKg, 1e-9)
	assert.InDelta(t, 27.0, p.WastePercent, 1e-9)
}

func TestEstimate_NegativeWeightIsZero(t *testing.T) {
	got := newEstimator(t).Estimate(-5, "corrugated")
	assert.Zero(t, got.WeightKg)
	assert.Zero(t, got.ExpectedOutput)
}

func TestCompute_Bounds(t *testing.T) {
	for _, weight := range []float64{0, 0.5, 1, 13.37, 100, 2500} {
		for _, waste := range []float64{0, 1, 27, 50, 99.9, 100} {
			got := Compute(weight, "x", config.Yield{YieldPerKg: 66, WastePercent: waste})
			require.GreaterOrEqual(t, got.UsableKg, 0.0)
			require.LessOrEqual(t, got.UsableKg, weight+0.005)
			require.InDelta(t, weight, got.UsableKg+got.WasteKg, 0.011)
			require.GreaterOrEqual(t, got.ExpectedOutput, 0)
		}
	}
}
