package forecast

import (
	"fmt"
	"math"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/numeric"
)

// DefaultBufferMonths is the safety stock on top of the lead time.
const DefaultBufferMonths = 2

// Advisor turns urgent mesh forecasts into order quantities that cover the
// lead time plus a buffer.
type Advisor struct {
	BufferMonths float64
}

func NewAdvisor(bufferMonths float64) *Advisor {
	if bufferMonths < 0 {
		bufferMonths = DefaultBufferMonths
	}
	return &Advisor{BufferMonths: bufferMonths}
}

// Suggest keeps forecast order. Entries that are OK, have no usage, or
// have no monthly usage to project are left out.
func (a *Advisor) Suggest(forecasts []domain.MeshForecast) []domain.ReorderSuggestion {
	out := []domain.ReorderSuggestion{}
	for _, f := range forecasts {
		if !f.Status.NeedsReorder() || f.AvgMonthlyUsage <= 0 {
			continue
		}

		targetMonths := f.LeadTimeMonths + a.BufferMonths
		target := f.AvgMonthlyUsage * targetMonths
		suggested := numeric.Round(math.Max(0, target-f.CurrentMetres), 0)
		net := math.Max(0, suggested-f.IncomingMetres)

		out = append(out, domain.ReorderSuggestion{
			MeshType:             f.MeshType,
			MeshName:             f.MeshName,
			WidthMM:              f.WidthMM,
			Colour:               f.Colour,
			CurrentMetres:        f.CurrentMetres,
			AvgMonthlyUsage:      f.AvgMonthlyUsage,
			TargetMonths:         targetMonths,
			TargetMetres:         numeric.Round(target, 1),
			SuggestedOrderMetres: suggested,
			IncomingMetres:       f.IncomingMetres,
			NetOrderMetres:       numeric.Round(net, 0),
			Urgency:              f.Status,
			Reason:               fmt.Sprintf("Stock below %g months (%s)", targetMonths, f.Status),
		})
	}
	return out
}
