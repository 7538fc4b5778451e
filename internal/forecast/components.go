package forecast

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/numeric"
	"github.com/gutterguard/inventory/internal/yield"
)

// ComponentForecast classifies saddles, screws, trims and boxes against the
// order usage summary for the trailing days. Coils appear as separate COIL
// entries under the product they press into.
func (e *Engine) ComponentForecast(ctx context.Context, days int, refresh bool) domain.ComponentForecasts {
	if days <= 0 {
		days = e.opts.ComponentWindowDays
	}
	cat := e.catalog.Get()
	usage := e.usageSummary(ctx, days, refresh)

	coils, err := e.stock.Coils(ctx, domain.CoilFilter{})
	if err != nil {
		log.Warn().Err(err).Msg("forecast: load coils failed")
		coils = nil
	}
	var saddleCoils, trimCoils []domain.Coil
	for _, c := range coils {
		if cat.YieldFor(c.SaddleType).OutputUnit == domain.UsageTrims {
			trimCoils = append(trimCoils, c)
		} else {
			saddleCoils = append(saddleCoils, c)
		}
	}

	return domain.ComponentForecasts{
		Saddles: e.saddleForecasts(ctx, cat, usage, saddleCoils),
		Screws:  e.screwForecasts(ctx, cat, usage),
		Trims:   e.trimForecasts(ctx, cat, usage, trimCoils),
		Boxes:   e.boxForecasts(ctx, cat, usage),
		Usage:   usage,
	}
}

func componentEntry(category domain.Category, typ, name, colour string, qty int, unit, usageKey string, daily, leadDays float64) domain.ComponentForecast {
	cls := Classify(float64(qty), daily, DaysLead(leadDays))
	return domain.ComponentForecast{
		Category:      category,
		Type:          typ,
		Name:          name,
		Colour:        colour,
		CurrentStock:  qty,
		Unit:          unit,
		UsageKey:      usageKey,
		DailyUsage:    numeric.Round(daily, 2),
		DaysRemaining: numeric.RoundPtr(cls.Remaining, 0),
		LeadTimeDays:  leadDays,
		Status:        cls.Status,
	}
}

func (e *Engine) saddleForecasts(ctx context.Context, cat *config.Catalog, usage domain.UsageSummary, coils []domain.Coil) []domain.ComponentForecast {
	daily := usage.Daily(domain.UsageSaddles)
	lead := cat.LeadTimes.SaddleDays
	out := []domain.ComponentForecast{}

	records, err := e.stock.Saddles(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("forecast: load saddles failed")
		records = nil
	}
	for _, r := range records {
		if r.Quantity <= 0 {
			continue
		}
		name := r.SaddleType
		if t, ok := cat.SaddleTypes[r.SaddleType]; ok && t.Name != "" {
			name = t.Name
		}
		out = append(out, componentEntry(domain.CategorySaddles, r.SaddleType, name+" Saddles", r.Colour,
			r.Quantity, "saddles", domain.UsageSaddles, daily, lead))
	}

	for _, c := range coils {
		if f, ok := coilEntry(cat, c, domain.CategorySaddles, domain.UsageSaddles, daily, lead); ok {
			out = append(out, f)
		}
	}

	sortComponents(out)
	return out
}

func (e *Engine) trimForecasts(ctx context.Context, cat *config.Catalog, usage domain.UsageSummary, coils []domain.Coil) []domain.ComponentForecast {
	daily := usage.Daily(domain.UsageTrims)
	lead := cat.LeadTimes.TrimDays
	out := []domain.ComponentForecast{}

	records, err := e.stock.Trims(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("forecast: load trims failed")
		records = nil
	}
	for _, r := range records {
		if r.Quantity <= 0 {
			continue
		}
		out = append(out, componentEntry(domain.CategoryTrims, "trim", "Trims", r.Colour,
			r.Quantity, "trims", domain.UsageTrims, daily, lead))
	}

	for _, c := range coils {
		if f, ok := coilEntry(cat, c, domain.CategoryTrims, domain.UsageTrims, daily, lead); ok {
			out = append(out, f)
		}
	}

	sortComponents(out)
	return out
}

func (e *Engine) screwForecasts(ctx context.Context, cat *config.Catalog, usage domain.UsageSummary) []domain.ComponentForecast {
	lead := cat.LeadTimes.ScrewDays
	out := []domain.ComponentForecast{}

	records, err := e.stock.Screws(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("forecast: load screws failed")
		records = nil
	}
	for _, r := range records {
		if r.Quantity <= 0 {
			continue
		}
		key := cat.ScrewUsageKey(r.ScrewType)
		name := r.ScrewType
		if t, ok := cat.ScrewTypes[r.ScrewType]; ok && t.Name != "" {
			name = t.Name
		}
		out = append(out, componentEntry(domain.CategoryScrews, r.ScrewType, name, r.Colour,
			r.Quantity, "screws", key, usage.Daily(key), lead))
	}

	sortComponents(out)
	return out
}

// boxForecasts has no per-box order data, so it assumes one box per order
// split across box types by the catalogue ratios.
func (e *Engine) boxForecasts(ctx context.Context, cat *config.Catalog, usage domain.UsageSummary) []domain.ComponentForecast {
	lead := cat.LeadTimes.BoxDays
	out := []domain.ComponentForecast{}

	dailyOrders := 0.0
	if usage.PeriodDays > 0 {
		dailyOrders = float64(usage.OrderCount) / float64(usage.PeriodDays)
	}

	records, err := e.stock.Boxes(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("forecast: load boxes failed")
		records = nil
	}
	for _, r := range records {
		if r.Quantity <= 0 {
			continue
		}
		daily := dailyOrders * cat.BoxUsageRatio(r.BoxType)
		out = append(out, componentEntry(domain.CategoryBoxes, r.BoxType, cat.BoxName(r.BoxType), "",
			r.Quantity, "boxes", domain.UsageOrders, daily, lead))
	}

	sortComponents(out)
	return out
}

// coilEntry reports what a coil could still be pressed into. It is never
// added to on-shelf stock.
func coilEntry(cat *config.Catalog, c domain.Coil, category domain.Category, usageKey string, daily, leadDays float64) (domain.ComponentForecast, bool) {
	if c.CurrentWeightKg <= 0 || !numeric.Finite(c.CurrentWeightKg) {
		return domain.ComponentForecast{}, false
	}
	est := yield.Compute(c.CurrentWeightKg, c.SaddleType, cat.YieldFor(c.SaddleType))

	f := componentEntry(category, domain.ComponentTypeCoilYield,
		fmt.Sprintf("%s coil (%.1fkg)", c.SaddleType, c.CurrentWeightKg), c.Colour,
		est.ExpectedOutput, est.OutputUnit, usageKey, daily, leadDays)
	f.Status = domain.StatusCoil
	f.CoilID = c.ID
	f.CoilWeightKg = numeric.Round(c.CurrentWeightKg, 2)
	return f, true
}

func sortComponents(fs []domain.ComponentForecast) {
	sort.SliceStable(fs, func(i, j int) bool {
		ri, rj := fs[i].Status.Rank(), fs[j].Status.Rank()
		if ri != rj {
			return ri < rj
		}
		if less, equal := lessRemaining(fs[i].DaysRemaining, fs[j].DaysRemaining); !equal {
			return less
		}
		if fs[i].Type != fs[j].Type {
			return fs[i].Type < fs[j].Type
		}
		return fs[i].Colour < fs[j].Colour
	})
}
