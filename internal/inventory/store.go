package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/repository"
	"github.com/gutterguard/inventory/internal/yield"
)

// Store owns every stock collection. Mutations are serialised and each one
// loads the current document, changes it and writes the whole document
// back, so a rejected request never reaches the backend.
type Store struct {
	docs    repository.DocumentStore
	catalog *config.CatalogStore
	yield   *yield.Estimator
	now     func() time.Time
	mu      sync.Mutex

	screws  *Ledger[domain.ScrewRecord, *domain.ScrewRecord]
	saddles *Ledger[domain.SaddleRecord, *domain.SaddleRecord]
	trims   *Ledger[domain.TrimRecord, *domain.TrimRecord]
	boxes   *Ledger[domain.BoxRecord, *domain.BoxRecord]
}

func NewStore(docs repository.DocumentStore, catalog *config.CatalogStore, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		docs:    docs,
		catalog: catalog,
		yield:   yield.NewEstimator(catalog),
		now:     func() time.Time { return now().UTC() },
	}
	s.screws = newLedger(s, screwSpec)
	s.saddles = newLedger(s, saddleSpec)
	s.trims = newLedger(s, trimSpec)
	s.boxes = newLedger(s, boxSpec)
	return s
}

func (s *Store) ScrewLedger() *Ledger[domain.ScrewRecord, *domain.ScrewRecord]    { return s.screws }
func (s *Store) SaddleLedger() *Ledger[domain.SaddleRecord, *domain.SaddleRecord] { return s.saddles }
func (s *Store) TrimLedger() *Ledger[domain.TrimRecord, *domain.TrimRecord]       { return s.trims }
func (s *Store) BoxLedger() *Ledger[domain.BoxRecord, *domain.BoxRecord]          { return s.boxes }

// Counted returns the ledger for a counted category behind the untyped
// Counter interface used by the HTTP and stocktake layers.
func (s *Store) Counted(c domain.Category) (Counter, error) {
	switch c {
	case domain.CategoryScrews:
		return s.screws, nil
	case domain.CategorySaddles:
		return s.saddles, nil
	case domain.CategoryTrims:
		return s.trims, nil
	case domain.CategoryBoxes:
		return s.boxes, nil
	}
	return nil, domain.ErrUnknownCategory
}

// Documents exposes the backend, used by backups.
func (s *Store) Documents() repository.DocumentStore { return s.docs }

// Lock holds the mutation lock. Restores use it to swap every collection
// without interleaving with a stock change.
func (s *Store) Lock()   { s.mu.Lock() }
func (s *Store) Unlock() { s.mu.Unlock() }

func newID() string { return uuid.NewString() }

func today(t time.Time) string { return t.Format("2006-01-02") }

func loadDoc[D any](ctx context.Context, s *Store, c repository.Collection) (D, error) {
	var doc D
	if _, err := s.docs.Load(ctx, c, &doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// update runs fn against a fresh copy of the document and saves it only when
// fn succeeds.
func update[D any](ctx context.Context, s *Store, c repository.Collection, fn func(doc *D) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := loadDoc[D](ctx, s, c)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.docs.Save(ctx, c, &doc)
}
