package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/repository"
)

// Item identifies a counted stock line. Type is the screw, saddle or box
// type; trims only use Colour and boxes only use Type.
type Item struct {
	Type   string `json:"type"`
	Colour string `json:"colour"`
}

// StockLine is a category-neutral view of one counted record.
type StockLine struct {
	ID          string          `json:"id"`
	Category    domain.Category `json:"category"`
	Type        string          `json:"type,omitempty"`
	Colour      string          `json:"colour,omitempty"`
	Quantity    int             `json:"quantity"`
	Source      string          `json:"source,omitempty"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Counter is the untyped face of a Ledger.
type Counter interface {
	Category() domain.Category
	AddItem(ctx context.Context, it Item, qty int, source string) (StockLine, error)
	RemoveItem(ctx context.Context, it Item, qty int, reason, orderID string) error
	Lines(ctx context.Context, filter Item) ([]StockLine, error)
	// Replace drops every record inside scope (all records when scope is
	// nil), then adds the non-zero counts. Usage history is kept.
	Replace(ctx context.Context, scope func(Item) bool, counts map[Item]int, source string) error
}

type record[T any] interface {
	*T
	domain.Stockable
	Counter() *domain.StockCount
}

type ledgerSpec[T any] struct {
	category    domain.Category
	collection  repository.Collection
	build       func(Item) T
	item        func(T) Item
	needsType   bool
	needsColour bool
}

var (
	screwSpec = ledgerSpec[domain.ScrewRecord]{
		category:    domain.CategoryScrews,
		collection:  repository.CollectionScrews,
		build:       func(it Item) domain.ScrewRecord { return domain.ScrewRecord{ScrewType: it.Type, Colour: it.Colour} },
		item:        func(r domain.ScrewRecord) Item { return Item{Type: r.ScrewType, Colour: r.Colour} },
		needsType:   true,
		needsColour: true,
	}
	saddleSpec = ledgerSpec[domain.SaddleRecord]{
		category:    domain.CategorySaddles,
		collection:  repository.CollectionSaddles,
		build:       func(it Item) domain.SaddleRecord { return domain.SaddleRecord{SaddleType: it.Type, Colour: it.Colour} },
		item:        func(r domain.SaddleRecord) Item { return Item{Type: r.SaddleType, Colour: r.Colour} },
		needsType:   true,
		needsColour: true,
	}
	trimSpec = ledgerSpec[domain.TrimRecord]{
		category:    domain.CategoryTrims,
		collection:  repository.CollectionTrims,
		build:       func(it Item) domain.TrimRecord { return domain.TrimRecord{Colour: it.Colour} },
		item:        func(r domain.TrimRecord) Item { return Item{Colour: r.Colour} },
		needsColour: true,
	}
	boxSpec = ledgerSpec[domain.BoxRecord]{
		category:   domain.CategoryBoxes,
		collection: repository.CollectionBoxes,
		build:      func(it Item) domain.BoxRecord { return domain.BoxRecord{BoxType: it.Type} },
		item:       func(r domain.BoxRecord) Item { return Item{Type: r.BoxType} },
		needsType:  true,
	}
)

// Ledger manages one counted collection: screws, saddles, trims or boxes.
type Ledger[T any, P record[T]] struct {
	store *Store
	spec  ledgerSpec[T]
}

func newLedger[T any, P record[T]](s *Store, spec ledgerSpec[T]) *Ledger[T, P] {
	return &Ledger[T, P]{store: s, spec: spec}
}

func (l *Ledger[T, P]) Category() domain.Category { return l.spec.category }

func (l *Ledger[T, P]) normalize(it Item) (Item, error) {
	it.Type = strings.TrimSpace(it.Type)
	it.Colour = strings.TrimSpace(it.Colour)
	if !l.spec.needsType {
		it.Type = ""
	}
	if !l.spec.needsColour {
		it.Colour = ""
	}
	if l.spec.needsType && it.Type == "" {
		return it, fmt.Errorf("%w: %s type is required", domain.ErrInvalidInput, l.spec.category)
	}
	if l.spec.needsColour && it.Colour == "" {
		return it, fmt.Errorf("%w: %s colour is required", domain.ErrInvalidInput, l.spec.category)
	}
	return it, nil
}

func (l *Ledger[T, P]) key(it Item) string {
	rec := l.spec.build(it)
	return P(&rec).StockKey()
}

// add increments a matching record or appends a new one.
func (l *Ledger[T, P]) add(doc *domain.CountedDocument[T], it Item, qty int, source string, now time.Time) T {
	key := l.key(it)
	for i := range doc.Inventory {
		p := P(&doc.Inventory[i])
		if p.StockKey() == key {
			c := p.Counter()
			c.Quantity += qty
			c.LastUpdated = now
			doc.LastUpdated = now
			return doc.Inventory[i]
		}
	}

	rec := l.spec.build(it)
	c := P(&rec).Counter()
	c.ID = newID()
	c.Quantity = qty
	c.Source = source
	c.CreatedAt = now
	c.LastUpdated = now
	doc.Inventory = append(doc.Inventory, rec)
	doc.LastUpdated = now
	return rec
}

// Add puts qty units of it on the shelf.
func (l *Ledger[T, P]) Add(ctx context.Context, it Item, qty int, source string) (T, error) {
	var out T
	if qty <= 0 {
		return out, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidQuantity, qty)
	}
	it, err := l.normalize(it)
	if err != nil {
		return out, err
	}

	err = update(ctx, l.store, l.spec.collection, func(doc *domain.CountedDocument[T]) error {
		out = l.add(doc, it, qty, source, l.store.now())
		return nil
	})
	return out, err
}

// Remove takes qty units off the shelf and logs a usage event. It fails
// with ErrInsufficientStock, leaving stock unchanged, when fewer are on hand.
func (l *Ledger[T, P]) Remove(ctx context.Context, it Item, qty int, reason, orderID string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidQuantity, qty)
	}
	it, err := l.normalize(it)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = "order"
	}

	return update(ctx, l.store, l.spec.collection, func(doc *domain.CountedDocument[T]) error {
		key := l.key(it)
		for i := range doc.Inventory {
			p := P(&doc.Inventory[i])
			if p.StockKey() != key {
				continue
			}
			c := p.Counter()
			if c.Quantity < qty {
				return fmt.Errorf("%w: %d on hand, %d requested", domain.ErrInsufficientStock, c.Quantity, qty)
			}
			now := l.store.now()
			c.Quantity -= qty
			c.LastUpdated = now
			doc.LastUpdated = now
			doc.UsageHistory = append(doc.UsageHistory, domain.UsageEvent{
				Date:     now,
				Category: l.spec.category,
				Type:     it.Type,
				Colour:   it.Colour,
				Quantity: qty,
				Reason:   reason,
				OrderID:  orderID,
			})
			return nil
		}
		return fmt.Errorf("%w: 0 on hand, %d requested", domain.ErrInsufficientStock, qty)
	})
}

// Records returns every record, including zero counts.
func (l *Ledger[T, P]) Records(ctx context.Context) ([]T, error) {
	doc, err := loadDoc[domain.CountedDocument[T]](ctx, l.store, l.spec.collection)
	if err != nil {
		return nil, err
	}
	return doc.Inventory, nil
}

// Stock returns records with stock on hand that match filter; empty filter
// fields match everything.
func (l *Ledger[T, P]) Stock(ctx context.Context, filter Item) ([]T, error) {
	records, err := l.Records(ctx)
	if err != nil {
		return nil, err
	}
	out := []T{}
	for _, r := range records {
		it := l.spec.item(r)
		if P(&r).OnHand() <= 0 {
			continue
		}
		if filter.Type != "" && filter.Type != it.Type {
			continue
		}
		if filter.Colour != "" && filter.Colour != it.Colour {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// OnHand sums stock for one item.
func (l *Ledger[T, P]) OnHand(ctx context.Context, it Item) (int, error) {
	records, err := l.Records(ctx)
	if err != nil {
		return 0, err
	}
	key := l.key(it)
	total := 0
	for i := range records {
		if p := P(&records[i]); p.StockKey() == key {
			total += p.OnHand()
		}
	}
	return total, nil
}

func (l *Ledger[T, P]) UsageEvents(ctx context.Context, since time.Time) ([]domain.UsageEvent, error) {
	doc, err := loadDoc[domain.CountedDocument[T]](ctx, l.store, l.spec.collection)
	if err != nil {
		return nil, err
	}
	return eventsSince(doc.UsageHistory, since), nil
}

func (l *Ledger[T, P]) line(r T) StockLine {
	it := l.spec.item(r)
	c := P(&r).Counter()
	return StockLine{
		ID:          c.ID,
		Category:    l.spec.category,
		Type:        it.Type,
		Colour:      it.Colour,
		Quantity:    c.Quantity,
		Source:      c.Source,
		LastUpdated: c.LastUpdated,
	}
}

func (l *Ledger[T, P]) AddItem(ctx context.Context, it Item, qty int, source string) (StockLine, error) {
	r, err := l.Add(ctx, it, qty, source)
	if err != nil {
		return StockLine{}, err
	}
	return l.line(r), nil
}

func (l *Ledger[T, P]) RemoveItem(ctx context.Context, it Item, qty int, reason, orderID string) error {
	return l.Remove(ctx, it, qty, reason, orderID)
}

// Lines is Stock as StockLines, sorted by type then colour.
func (l *Ledger[T, P]) Lines(ctx context.Context, filter Item) ([]StockLine, error) {
	records, err := l.Stock(ctx, filter)
	if err != nil {
		return nil, err
	}
	lines := make([]StockLine, 0, len(records))
	for _, r := range records {
		lines = append(lines, l.line(r))
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Type != lines[j].Type {
			return lines[i].Type < lines[j].Type
		}
		return lines[i].Colour < lines[j].Colour
	})
	return lines, nil
}

func (l *Ledger[T, P]) Replace(ctx context.Context, scope func(Item) bool, counts map[Item]int, source string) error {
	if scope == nil {
		scope = func(Item) bool { return true }
	}
	normalized := make(map[Item]int, len(counts))
	for it, qty := range counts {
		if qty < 0 {
			return fmt.Errorf("%w: negative count for %+v", domain.ErrInvalidQuantity, it)
		}
		if qty == 0 {
			continue
		}
		n, err := l.normalize(it)
		if err != nil {
			return err
		}
		normalized[n] += qty
	}

	items := make([]Item, 0, len(normalized))
	for it := range normalized {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type < items[j].Type
		}
		return items[i].Colour < items[j].Colour
	})

	return update(ctx, l.store, l.spec.collection, func(doc *domain.CountedDocument[T]) error {
		now := l.store.now()
		kept := []T{}
		for _, r := range doc.Inventory {
			if !scope(l.spec.item(r)) {
				kept = append(kept, r)
			}
		}
		doc.Inventory = kept
		for _, it := range items {
			l.add(doc, it, normalized[it], source, now)
		}
		doc.LastUpdated = now
		return nil
	})
}

func eventsSince(events []domain.UsageEvent, since time.Time) []domain.UsageEvent {
	out := []domain.UsageEvent{}
	for _, e := range events {
		if !e.Date.Before(since) {
			out = append(out, e)
		}
	}
	return out
}
