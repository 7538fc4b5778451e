package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/repository"
)

// Set TEST_DATABASE_DSN to run against a scratch database.
func testStore(t *testing.T) *DocumentStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewDocumentStore(Wrap(db))
	require.NoError(t, store.EnsureSchema(context.Background()))
	_, err = db.Exec(`DELETE FROM inventory_documents WHERE collection = $1`, string(repository.CollectionBoxes))
	require.NoError(t, err)
	return store
}

func TestDocumentStore_RoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	var doc domain.CountedDocument[domain.BoxRecord]
	found, err := store.Load(ctx, repository.CollectionBoxes, &doc)
	require.NoError(t, err)
	assert.False(t, found)

	doc.Inventory = []domain.BoxRecord{{StockCount: domain.StockCount{ID: "b1", Quantity: 30}, BoxType: "small_tube"}}
	require.NoError(t, store.Save(ctx, repository.CollectionBoxes, doc))

	doc.Inventory[0].Quantity = 12
	require.NoError(t, store.Save(ctx, repository.CollectionBoxes, doc))

	var got domain.CountedDocument[domain.BoxRecord]
	found, err = store.Load(ctx, repository.CollectionBoxes, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got.Inventory, 1)
	assert.Equal(t, 12, got.Inventory[0].Quantity)
}
