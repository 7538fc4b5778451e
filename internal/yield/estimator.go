package yield

import (
	"math"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/numeric"
)

// Estimator converts coil weight into an expected count of pressed units.
// Parameters are read from the catalogue on every call so a reload takes
// effect for the next estimate.
type Estimator struct {
	catalog *config.CatalogStore
}

func NewEstimator(catalog *config.CatalogStore) *Estimator {
	return &Estimator{catalog: catalog}
}

// Params returns the resolved yield parameters for a coil type.
func (e *Estimator) Params(coilType string) config.Yield {
	return e.catalog.Get().YieldFor(coilType)
}

// Estimate computes usable and waste weight and the expected output for
// weightKg of coilType. Negative weights count as zero.
func (e *Estimator) Estimate(weightKg float64, coilType string) domain.YieldEstimate {
	return Compute(weightKg, coilType, e.Params(coilType))
}

// Compute is the estimator maths without a catalogue lookup.
func Compute(weightKg float64, coilType string, p config.Yield) domain.YieldEstimate {
	if weightKg < 0 || !numeric.Finite(weightKg) {
		weightKg = 0
	}
	waste := math.Min(math.Max(p.WastePercent, 0), 100)

	usable := weightKg * (1 - waste/100)
	wasteKg := weightKg * (waste / 100)
	expected := 0
	if p.YieldPerKg > 0 {
		// nudge before flooring so 73.0*66 is not read as 4817.999...
		expected = int(math.Floor(usable*p.YieldPerKg + 1e-9))
	}

	return domain.YieldEstimate{
		CoilType:       coilType,
		WeightKg:       weightKg,
		UsableKg:       numeric.Round(usable, 2),
		WasteKg:        numeric.Round(wasteKg, 2),
		WastePercent:   waste,
		YieldPerKg:     p.YieldPerKg,
		ExpectedOutput: expected,
		OutputUnit:     p.OutputUnit,
	}
}
