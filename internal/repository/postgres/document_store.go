package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gutterguard/inventory/internal/repository"
)

// Schema creates the single table that backs every collection.
const Schema = `
	CREATE TABLE IF NOT EXISTS inventory_documents (
		collection TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// DocumentStore keeps each collection as one jsonb row.
type DocumentStore struct {
	db *DB
}

func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

var _ repository.DocumentStore = (*DocumentStore)(nil)

// EnsureSchema applies Schema. It is safe to run on every start.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create inventory_documents: %w", err)
	}
	return nil
}

func (s *DocumentStore) Load(ctx context.Context, c repository.Collection, dst any) (bool, error) {
	query := `SELECT payload FROM inventory_documents WHERE collection = $1`

	var payload []byte
	err := s.db.GetContext(ctx, &payload, query, string(c))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error loading %s: %w", c, err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", c, err)
	}
	return true, nil
}

func (s *DocumentStore) Save(ctx context.Context, c repository.Collection, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}

	query := `
		INSERT INTO inventory_documents (collection, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (collection)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, string(c), payload); err != nil {
			return fmt.Errorf("error saving %s: %w", c, err)
		}
		return nil
	})
}
