package inventory

import (
	"context"
	"time"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/forecast"
	"github.com/gutterguard/inventory/internal/repository"
)

var _ forecast.StockReader = (*Store)(nil)

// MeshRolls returns every mesh entry, zero counts included.
func (s *Store) MeshRolls(ctx context.Context) ([]domain.MeshRoll, error) {
	doc, err := s.meshDocument(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Inventory, nil
}

func (s *Store) IncomingOrders(ctx context.Context) ([]domain.IncomingOrder, error) {
	return s.Incoming(ctx, "")
}

// UsageEvents returns usage logged since the given time. Coils have no usage
// history; pressing is recorded as production instead.
func (s *Store) UsageEvents(ctx context.Context, category domain.Category, since time.Time) ([]domain.UsageEvent, error) {
	switch category {
	case domain.CategoryMesh:
		doc, err := s.meshDocument(ctx)
		if err != nil {
			return nil, err
		}
		return eventsSince(doc.UsageHistory, since), nil
	case domain.CategoryScrews:
		return s.screws.UsageEvents(ctx, since)
	case domain.CategorySaddles:
		return s.saddles.UsageEvents(ctx, since)
	case domain.CategoryTrims:
		return s.trims.UsageEvents(ctx, since)
	case domain.CategoryBoxes:
		return s.boxes.UsageEvents(ctx, since)
	case domain.CategoryCoils:
		return []domain.UsageEvent{}, nil
	}
	return nil, domain.ErrUnknownCategory
}

func (s *Store) Screws(ctx context.Context) ([]domain.ScrewRecord, error) {
	return s.screws.Records(ctx)
}

func (s *Store) Saddles(ctx context.Context) ([]domain.SaddleRecord, error) {
	return s.saddles.Records(ctx)
}

func (s *Store) Trims(ctx context.Context) ([]domain.TrimRecord, error) {
	return s.trims.Records(ctx)
}

func (s *Store) Boxes(ctx context.Context) ([]domain.BoxRecord, error) {
	return s.boxes.Records(ctx)
}

// LastUpdated reads only the timestamp of a collection; zero when it has
// never been saved.
func (s *Store) LastUpdated(ctx context.Context, category domain.Category) (time.Time, error) {
	c, err := repository.CollectionFor(category)
	if err != nil {
		return time.Time{}, err
	}
	var stamp struct {
		LastUpdated time.Time `json:"last_updated"`
	}
	if _, err := s.docs.Load(ctx, c, &stamp); err != nil {
		return time.Time{}, err
	}
	return stamp.LastUpdated, nil
}
