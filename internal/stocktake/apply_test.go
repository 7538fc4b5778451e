package stocktake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/backup"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/inventory"
	"github.com/gutterguard/inventory/internal/repository"
	"github.com/gutterguard/inventory/internal/storage"
)

var testNow = time.Date(2026, 6, 30, 16, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *inventory.Store, *backup.Manager) {
	t.Helper()
	now := func() time.Time { return testNow }
	catalog := config.NewStaticCatalogStore(config.DefaultCatalog())
	store := inventory.NewStore(repository.NewMemoryStore(), catalog, now)
	objects, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	backups := backup.NewManager(store.Documents(), objects, store, now)
	return NewService(store, backups, catalog, now), store, backups
}

func counted(c Category, typ, colour string, qty int) Entry {
	return Entry{Item: Item{Category: c, Type: typ, Colour: colour}, Quantity: qty}
}

func TestApply_SaddlesKeepOtherType(t *testing.T) {
	svc, store, backups := newTestService(t)
	ctx := context.Background()
	saddles := store.SaddleLedger()

	_, err := saddles.Add(ctx, inventory.Item{Type: "corrugated", Colour: "Monument"}, 500, "production")
	require.NoError(t, err)
	_, err = saddles.Add(ctx, inventory.Item{Type: "trimdek", Colour: "Surfmist"}, 80, "production")
	require.NoError(t, err)
	require.NoError(t, saddles.Remove(ctx, inventory.Item{Type: "corrugated", Colour: "Monument"}, 20, "order", "#1001"))

	res, err := svc.Apply(ctx, CategoryCorrugatedSaddles, []Entry{
		counted(CategoryCorrugatedSaddles, "", "Monument", 450),
		counted(CategoryCorrugatedSaddles, "", "Basalt", 30),
		counted(CategoryCorrugatedSaddles, "", "Dune", 0),
		counted(CategoryTrims, "", "Dune", 99),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsAdded)
	assert.Equal(t, 1, res.PreviousItems)
	assert.Equal(t, "stocktake_20260630_160000", res.Backup)

	lines, err := saddles.Lines(ctx, inventory.Item{})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "Basalt", lines[0].Colour)
	assert.Equal(t, 30, lines[0].Quantity)
	assert.Equal(t, 450, lines[1].Quantity)
	assert.Equal(t, "stocktake", lines[1].Source)
	assert.Equal(t, "trimdek", lines[2].Type)
	assert.Equal(t, 80, lines[2].Quantity)

	events, err := store.UsageEvents(ctx, domain.CategorySaddles, time.Time{})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	trims, err := store.Trims(ctx)
	require.NoError(t, err)
	assert.Empty(t, trims)

	list, err := backups.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Files)
}

func TestApply_ScrewsDefaultType(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, CategoryScrews, []Entry{
		counted(CategoryScrews, "", "Basalt", 4),
		counted(CategoryScrews, "", "Basalt", 1),
	})
	require.NoError(t, err)

	screws, err := store.Screws(ctx)
	require.NoError(t, err)
	require.Len(t, screws, 1)
	assert.Equal(t, "screws", screws[0].ScrewType)
	assert.Equal(t, 5, screws[0].Quantity)
}

func TestApply_MeshKeepsIncomingAndOtherType(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	ember := inventory.RollKey{MeshType: "2mm_ember_guard", WidthMM: 250, LengthM: 20, Colour: "Basalt"}
	_, err := store.AddRolls(ctx, inventory.AddRollsRequest{RollKey: ember, Quantity: 6})
	require.NoError(t, err)
	_, err = store.AddRolls(ctx, inventory.AddRollsRequest{
		RollKey:  inventory.RollKey{MeshType: "4mm_aluminium", WidthMM: 500, LengthM: 30, Colour: "Monument"},
		Quantity: 9,
	})
	require.NoError(t, err)
	_, err = store.AddIncoming(ctx, inventory.IncomingRequest{
		RollKey:          inventory.RollKey{MeshType: "4mm_aluminium", WidthMM: 250, LengthM: 30, Colour: "Dune"},
		Quantity:         20,
		ExpectedDelivery: "2026-09-01",
	})
	require.NoError(t, err)

	entry := Entry{Item: Item{Category: CategoryMesh4mm, Colour: "Monument", WidthMM: 250, LengthM: 10}, Quantity: 7}
	res, err := svc.Apply(ctx, CategoryMesh4mm, []Entry{entry})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PreviousItems)

	aluminium, err := store.Stock(ctx, domain.MeshFilter{MeshType: "4mm_aluminium"})
	require.NoError(t, err)
	require.Len(t, aluminium, 1)
	assert.Equal(t, 250, aluminium[0].WidthMM)
	assert.Equal(t, 7, aluminium[0].Quantity)
	assert.Equal(t, "From stocktake", aluminium[0].Notes)

	emberStock, err := store.Stock(ctx, domain.MeshFilter{MeshType: "2mm_ember_guard"})
	require.NoError(t, err)
	require.Len(t, emberStock, 1)
	assert.Equal(t, 6, emberStock[0].Quantity)

	incoming, err := store.Incoming(ctx, domain.IncomingOrdered)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)
}

func TestApply_Rejects(t *testing.T) {
	svc, _, backups := newTestService(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, Category("coils"), nil)
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)

	_, err = svc.Apply(ctx, CategoryTrims, []Entry{counted(CategoryTrims, "", "Basalt", -2)})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	list, err := backups.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
