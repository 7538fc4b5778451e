package stocktake

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gutterguard/inventory/internal/backup"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/inventory"
)

const stocktakeSource = "stocktake"

// Result summarises one applied category.
type Result struct {
	Category      Category  `json:"category"`
	Backup        string    `json:"backup"`
	ItemsAdded    int       `json:"items_added"`
	PreviousItems int       `json:"previous_items"`
	AppliedAt     time.Time `json:"applied_at"`
}

// Service applies counted sheets to the inventory store.
type Service struct {
	store   *inventory.Store
	backups *backup.Manager
	catalog *config.CatalogStore
	now     func() time.Time
}

func NewService(store *inventory.Store, backups *backup.Manager, catalog *config.CatalogStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, backups: backups, catalog: catalog, now: now}
}

func (s *Service) Items(c Category) ([]Item, error) {
	return Items(s.catalog.Get(), c)
}

// Apply backs up every collection, then replaces the category's stock with
// the non-zero entries counted for it. Entries for other categories are
// ignored. Usage history, incoming orders, cutting and production history,
// and the other saddle or mesh type are left alone.
func (s *Service) Apply(ctx context.Context, c Category, entries []Entry) (Result, error) {
	if _, ok := categoryNames[c]; !ok {
		return Result{}, fmt.Errorf("%w: stocktake category %q", domain.ErrUnknownCategory, c)
	}

	var counted []Entry
	for _, e := range entries {
		if e.Category != c {
			continue
		}
		if e.Quantity < 0 {
			return Result{}, fmt.Errorf("%w: %s counted %d", domain.ErrInvalidQuantity, e.ID, e.Quantity)
		}
		if e.Quantity > 0 {
			counted = append(counted, e)
		}
	}

	info, err := s.backups.Create(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("stocktake backup: %w", err)
	}
	res := Result{Category: c, Backup: info.Name, ItemsAdded: len(counted), AppliedAt: s.now()}

	switch c {
	case CategoryMesh4mm, CategoryMesh2mm:
		res.PreviousItems, err = s.applyMesh(ctx, c, counted)
	default:
		res.PreviousItems, err = s.applyCounted(ctx, c, counted)
	}
	if err != nil {
		return Result{}, err
	}

	log.Info().
		Str("category", string(c)).
		Str("backup", info.Name).
		Int("items", res.ItemsAdded).
		Int("previous", res.PreviousItems).
		Msg("stocktake: applied")
	return res, nil
}

func (s *Service) applyCounted(ctx context.Context, c Category, entries []Entry) (int, error) {
	var (
		counter inventory.Counter
		scope   func(inventory.Item) bool
		filter  inventory.Item
		err     error
	)
	switch c {
	case CategoryScrews:
		counter, err = s.store.Counted(domain.CategoryScrews)
	case CategoryTrims:
		counter, err = s.store.Counted(domain.CategoryTrims)
	case CategoryBoxes:
		counter, err = s.store.Counted(domain.CategoryBoxes)
	case CategoryCorrugatedSaddles, CategoryTrimdekSaddles:
		typ := c.saddleType()
		counter, err = s.store.Counted(domain.CategorySaddles)
		scope = func(it inventory.Item) bool { return it.Type == typ }
		filter = inventory.Item{Type: typ}
	}
	if err != nil {
		return 0, err
	}

	previous, err := counter.Lines(ctx, filter)
	if err != nil {
		return 0, err
	}

	counts := make(map[inventory.Item]int, len(entries))
	for _, e := range entries {
		it := inventory.Item{Type: e.Type, Colour: e.Colour}
		switch c {
		case CategoryScrews:
			if it.Type == "" {
				it.Type = screwType
			}
		case CategoryCorrugatedSaddles, CategoryTrimdekSaddles:
			it.Type = c.saddleType()
		}
		counts[it] += e.Quantity
	}

	if err := counter.Replace(ctx, scope, counts, stocktakeSource); err != nil {
		return 0, err
	}
	return len(previous), nil
}

func (s *Service) applyMesh(ctx context.Context, c Category, entries []Entry) (int, error) {
	meshType, _, ok := meshTypeFor(s.catalog.Get(), c)
	if !ok {
		return 0, fmt.Errorf("%w: no mesh type is counted under %s", domain.ErrUnknownCategory, c)
	}

	previous, err := s.store.Stock(ctx, domain.MeshFilter{MeshType: meshType})
	if err != nil {
		return 0, err
	}

	counts := make(map[inventory.RollKey]int, len(entries))
	for _, e := range entries {
		key := inventory.RollKey{MeshType: meshType, WidthMM: e.WidthMM, LengthM: e.LengthM, Colour: e.Colour}
		counts[key] += e.Quantity
	}
	if err := s.store.ReplaceMeshType(ctx, meshType, counts, "From stocktake"); err != nil {
		return 0, err
	}
	return len(previous), nil
}
