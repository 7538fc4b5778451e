package repository

import (
	"context"
	"fmt"

	"github.com/gutterguard/inventory/internal/domain"
)

// Collection names one persisted stock document.
type Collection string

const (
	CollectionMesh    Collection = "mesh_rolls"
	CollectionScrews  Collection = "screw_inventory"
	CollectionSaddles Collection = "saddle_stock"
	CollectionTrims   Collection = "trim_inventory"
	CollectionBoxes   Collection = "box_inventory"
	CollectionCoils   Collection = "coil_inventory"
)

var categoryCollections = map[domain.Category]Collection{
	domain.CategoryMesh:    CollectionMesh,
	domain.CategoryScrews:  CollectionScrews,
	domain.CategorySaddles: CollectionSaddles,
	domain.CategoryTrims:   CollectionTrims,
	domain.CategoryBoxes:   CollectionBoxes,
	domain.CategoryCoils:   CollectionCoils,
}

// Collections lists every collection in backup order.
func Collections() []Collection {
	return []Collection{
		CollectionMesh,
		CollectionScrews,
		CollectionSaddles,
		CollectionTrims,
		CollectionBoxes,
		CollectionCoils,
	}
}

// CollectionFor maps a stock category onto its collection.
func CollectionFor(c domain.Category) (Collection, error) {
	coll, ok := categoryCollections[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownCategory, c)
	}
	return coll, nil
}

// DocumentStore persists whole collection documents as JSON. Load reports
// false with a nil error when the collection has never been saved.
type DocumentStore interface {
	Load(ctx context.Context, c Collection, dst any) (bool, error)
	Save(ctx context.Context, c Collection, doc any) error
}
