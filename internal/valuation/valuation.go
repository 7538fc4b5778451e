package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
)

// Source is the stock the valuation reads.
type Source interface {
	MeshRolls(ctx context.Context) ([]domain.MeshRoll, error)
	Screws(ctx context.Context) ([]domain.ScrewRecord, error)
	Saddles(ctx context.Context) ([]domain.SaddleRecord, error)
	Trims(ctx context.Context) ([]domain.TrimRecord, error)
	Boxes(ctx context.Context) ([]domain.BoxRecord, error)
	Coils(ctx context.Context, filter domain.CoilFilter) ([]domain.Coil, error)
}

type Line struct {
	Category    domain.Category `json:"category"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type CategoryValue struct {
	Category domain.Category `json:"category"`
	Lines    []Line          `json:"lines"`
	Total    decimal.Decimal `json:"total"`
}

type Report struct {
	Categories []CategoryValue `json:"categories"`
	Total      decimal.Decimal `json:"total"`
	ValuedAt   time.Time       `json:"valued_at"`
}

type Valuer struct {
	stock   Source
	catalog *config.CatalogStore
	now     func() time.Time
}

func New(stock Source, catalog *config.CatalogStore, now func() time.Time) *Valuer {
	if now == nil {
		now = time.Now
	}
	return &Valuer{stock: stock, catalog: catalog, now: now}
}

func price(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func line(c domain.Category, desc string, qty decimal.Decimal, unit string, unitPrice, total decimal.Decimal) Line {
	return Line{Category: c, Description: desc, Quantity: qty, Unit: unit, UnitPrice: unitPrice, Total: total.Round(2)}
}

// Value prices everything on hand. Unlike the forecasts it fails when a
// collection cannot be read, since a partial total would be misleading.
func (v *Valuer) Value(ctx context.Context) (Report, error) {
	cat := v.catalog.Get()
	report := Report{ValuedAt: v.now(), Total: decimal.Zero}

	steps := []struct {
		category domain.Category
		lines    func(context.Context, *config.Catalog) ([]Line, error)
	}{
		{domain.CategoryMesh, v.meshLines},
		{domain.CategoryScrews, v.screwLines},
		{domain.CategorySaddles, v.saddleLines},
		{domain.CategoryTrims, v.trimLines},
		{domain.CategoryBoxes, v.boxLines},
		{domain.CategoryCoils, v.coilLines},
	}
	for _, step := range steps {
		lines, err := step.lines(ctx, cat)
		if err != nil {
			return Report{}, fmt.Errorf("value %s: %w", step.category, err)
		}
		cv := CategoryValue{Category: step.category, Lines: lines, Total: decimal.Zero}
		for _, l := range lines {
			cv.Total = cv.Total.Add(l.Total)
		}
		cv.Total = cv.Total.Round(2)
		report.Total = report.Total.Add(cv.Total)
		report.Categories = append(report.Categories, cv)
	}
	report.Total = report.Total.Round(2)
	return report, nil
}

func (v *Valuer) meshLines(ctx context.Context, cat *config.Catalog) ([]Line, error) {
	rolls, err := v.stock.MeshRolls(ctx)
	if err != nil {
		return nil, err
	}
	lines := []Line{}
	for _, r := range rolls {
		if r.Quantity <= 0 {
			continue
		}
		perMetre := price(cat.Pricing.MeshPerMetre[r.MeshType])
		metres := decimal.NewFromInt(int64(r.Quantity)).Mul(decimal.NewFromFloat(r.LengthM))
		desc := fmt.Sprintf("%s - %dmm x %gm - %s", cat.MeshName(r.MeshType), r.WidthMM, r.LengthM, r.Colour)
		lines = append(lines, line(domain.CategoryMesh, desc, decimal.NewFromInt(int64(r.Quantity)), "rolls", perMetre, metres.Mul(perMetre)))
	}
	return lines, nil
}

// screwLines prices screws per box; a part box is valued pro rata.
func (v *Valuer) screwLines(ctx context.Context, cat *config.Catalog) ([]Line, error) {
	screws, err := v.stock.Screws(ctx)
	if err != nil {
		return nil, err
	}
	boxSize := cat.Pricing.ScrewBoxSize
	if boxSize <= 0 {
		boxSize = 1000
	}
	perBox := price(cat.Pricing.ScrewPerBox)
	lines := []Line{}
	for _, s := range screws {
		if s.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(s.Quantity))
		boxes := qty.Div(decimal.NewFromInt(int64(boxSize)))
		name := s.ScrewType
		if t, ok := cat.ScrewTypes[s.ScrewType]; ok && t.Name != "" {
			name = t.Name
		}
		lines = append(lines, line(domain.CategoryScrews, name+" - "+s.Colour, qty, "screws", perBox, boxes.Mul(perBox)))
	}
	return lines, nil
}

func (v *Valuer) saddleLines(ctx context.Context, cat *config.Catalog) ([]Line, error) {
	saddles, err := v.stock.Saddles(ctx)
	if err != nil {
		return nil, err
	}
	lines := []Line{}
	for _, s := range saddles {
		if s.Quantity <= 0 {
			continue
		}
		each := price(cat.Pricing.SaddleEach[s.SaddleType])
		qty := decimal.NewFromInt(int64(s.Quantity))
		name := s.SaddleType
		if t, ok := cat.SaddleTypes[s.SaddleType]; ok && t.Name != "" {
			name = t.Name
		}
		lines = append(lines, line(domain.CategorySaddles, name+" Saddles - "+s.Colour, qty, "saddles", each, qty.Mul(each)))
	}
	return lines, nil
}

func (v *Valuer) trimLines(ctx context.Context, cat *config.Catalog) ([]Line, error) {
	trims, err := v.stock.Trims(ctx)
	if err != nil {
		return nil, err
	}
	each := price(cat.Pricing.TrimEach)
	lines := []Line{}
	for _, t := range trims {
		if t.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(t.Quantity))
		lines = append(lines, line(domain.CategoryTrims, "Trims - "+t.Colour, qty, "trims", each, qty.Mul(each)))
	}
	return lines, nil
}

func (v *Valuer) boxLines(ctx context.Context, cat *config.Catalog) ([]Line, error) {
	boxes, err := v.stock.Boxes(ctx)
	if err != nil {
		return nil, err
	}
	lines := []Line{}
	for _, b := range boxes {
		if b.Quantity <= 0 {
			continue
		}
		each := price(cat.Pricing.BoxEach[b.BoxType])
		qty := decimal.NewFromInt(int64(b.Quantity))
		lines = append(lines, line(domain.CategoryBoxes, "Boxes - "+cat.BoxName(b.BoxType), qty, "boxes", each, qty.Mul(each)))
	}
	return lines, nil
}

func (v *Valuer) coilLines(ctx context.Context, cat *config.Catalog) ([]Line, error) {
	coils, err := v.stock.Coils(ctx, domain.CoilFilter{})
	if err != nil {
		return nil, err
	}
	perKg := price(cat.Pricing.CoilPerKg)
	lines := []Line{}
	for _, c := range coils {
		if c.CurrentWeightKg <= 0 {
			continue
		}
		weight := decimal.NewFromFloat(c.CurrentWeightKg)
		name := c.SaddleType
		if t, ok := cat.SaddleTypes[c.SaddleType]; ok && t.Name != "" {
			name = t.Name
		}
		lines = append(lines, line(domain.CategoryCoils, fmt.Sprintf("Coil (%s) - %s", name, c.Colour), weight, "kg", perKg, weight.Mul(perKg)))
	}
	return lines, nil
}
