package forecast

import (
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/numeric"
)

// Unit is the time unit a lead time and the projected runway are in.
type Unit int

const (
	Days Unit = iota
	Months
)

// LeadTime is a supplier turnaround. Mesh is tracked coarsely in months
// with additive bands; fast moving components in days with multiplicative
// bands.
type LeadTime struct {
	Value float64
	Unit  Unit
}

func MonthsLead(v float64) LeadTime { return LeadTime{Value: v, Unit: Months} }

func DaysLead(v float64) LeadTime { return LeadTime{Value: v, Unit: Days} }

// bands returns the upper bounds of the ORDER_NOW and LOW bands.
func (l LeadTime) bands() (orderNow, low float64) {
	if l.Unit == Months {
		return l.Value + 1, l.Value + 2
	}
	return 2 * l.Value, 3 * l.Value
}

func (l LeadTime) status(remaining float64) domain.Status {
	orderNow, low := l.bands()
	switch {
	case remaining < l.Value:
		return domain.StatusCritical
	case remaining < orderNow:
		return domain.StatusOrderNow
	case remaining < low:
		return domain.StatusLow
	default:
		return domain.StatusOK
	}
}

// Classify projects how long quantity lasts at dailyRate, in the lead
// time's unit, and bands it against the lead time. A zero rate has no
// runway to project and yields NO_USAGE with a nil remaining value.
func Classify(quantity, dailyRate float64, lead LeadTime) domain.Classification {
	if !(dailyRate > 0) || !numeric.Finite(dailyRate) {
		return domain.Classification{Status: domain.StatusNoUsage}
	}
	if !(quantity > 0) || !numeric.Finite(quantity) {
		quantity = 0
	}

	remaining := quantity / dailyRate
	if lead.Unit == Months {
		remaining /= config.DaysPerMonth
	}
	return domain.Classification{Remaining: &remaining, Status: lead.status(remaining)}
}
