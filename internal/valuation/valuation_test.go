package valuation

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

type fakeSource struct {
	rolls   []domain.MeshRoll
	screws  []domain.ScrewRecord
	saddles []domain.SaddleRecord
	trims   []domain.TrimRecord
	boxes   []domain.BoxRecord
	coils   []domain.Coil
	err     error
}

func (f *fakeSource) MeshRolls(context.Context) ([]domain.MeshRoll, error)     { return f.rolls, nil }
func (f *fakeSource) Screws(context.Context) ([]domain.ScrewRecord, error)     { return f.screws, nil }
func (f *fakeSource) Saddles(context.Context) ([]domain.SaddleRecord, error)   { return f.saddles, nil }
func (f *fakeSource) Trims(context.Context) ([]domain.TrimRecord, error)       { return f.trims, nil }
func (f *fakeSource) Boxes(context.Context) ([]domain.BoxRecord, error)        { return f.boxes, f.err }
func (f *fakeSource) Coils(context.Context, domain.CoilFilter) ([]domain.Coil, error) {
	return f.coils, nil
}

func qty(n int) domain.StockCount { return domain.StockCount{Quantity: n} }

func newValuer(src Source) *Valuer {
	return New(src, config.NewStaticCatalogStore(config.DefaultCatalog()), func() time.Time {
		return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	})
}

func TestValue(t *testing.T) {
	src := &fakeSource{
		rolls: []domain.MeshRoll{
			{MeshType: "4mm_aluminium", WidthMM: 250, LengthM: 30, Colour: "Monument", Quantity: 2},
			{MeshType: "2mm_ember_guard", WidthMM: 500, LengthM: 10, Colour: "Basalt", Quantity: 1},
			{MeshType: "4mm_aluminium", WidthMM: 250, LengthM: 10, Colour: "Dune", Quantity: 0},
		},
		screws:  []domain.ScrewRecord{{StockCount: qty(2500), ScrewType: "saddle_screw", Colour: "Basalt"}},
		saddles: []domain.SaddleRecord{{StockCount: qty(100), SaddleType: "corrugated", Colour: "Monument"}, {StockCount: qty(0), SaddleType: "trimdek", Colour: "Dune"}},
		trims:   []domain.TrimRecord{{StockCount: qty(50), Colour: "Surfmist"}},
		boxes:   []domain.BoxRecord{{StockCount: qty(30), BoxType: "small_tube"}},
		coils: []domain.Coil{
			{ID: "c1", SaddleType: "corrugated", Colour: "Monument", CurrentWeightKg: 12.345, Status: domain.CoilInUse},
			{ID: "c2", SaddleType: "trim", Colour: "Basalt", CurrentWeightKg: 0, Status: domain.CoilDepleted},
		},
	}

	report, err := newValuer(src).Value(context.Background())
	require.NoError(t, err)

	totals := map[domain.Category]string{}
	for _, c := range report.Categories {
		totals[c.Category] = c.Total.StringFixed(2)
	}
	assert.Equal(t, map[domain.Category]string{
		domain.CategoryMesh:    "488.00",
		domain.CategoryScrews:  "105.00",
		domain.CategorySaddles: "45.00",
		domain.CategoryTrims:   "60.00",
		domain.CategoryBoxes:   "63.00",
		domain.CategoryCoils:   "58.64",
	}, totals)
	assert.Equal(t, "819.64", report.Total.StringFixed(2))

	mesh := report.Categories[0]
	require.Len(t, mesh.Lines, 2)
	assert.Equal(t, "4mm Aluminium Mesh - 250mm x 30m - Monument", mesh.Lines[0].Description)
	assert.Equal(t, "6.5", mesh.Lines[0].UnitPrice.String())

	coils := report.Categories[5]
	require.Len(t, coils.Lines, 1)
	assert.Equal(t, "Coil (Corrugated) - Monument", coils.Lines[0].Description)
	assert.Equal(t, "kg", coils.Lines[0].Unit)
}

func TestValue_EmptyStock(t *testing.T) {
	report, err := newValuer(&fakeSource{}).Value(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Total.IsZero())
	assert.Len(t, report.Categories, 6)
}

func TestValue_ReadFailure(t *testing.T) {
	_, err := newValuer(&fakeSource{err: errors.New("disk gone")}).Value(context.Background())
	assert.ErrorContains(t, err, "value boxes")
}
