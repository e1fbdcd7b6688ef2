// Package contents reads catalog items and maintains their download counters.
package contents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// PostgresRepository implements content storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the item with id or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.ContentItem, error) {
	query := `SELECT id, title, price, currency, file_ref, purchasable, download_count
		FROM content_items WHERE id=$1`

	item := &models.ContentItem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Title, &item.Price, &item.Currency, &item.FileRef, &item.Purchasable, &item.DownloadCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// Upsert inserts or replaces the catalog-owned fields of an item. The
// download counter is never overwritten.
func (r *PostgresRepository) Upsert(ctx context.Context, item *models.ContentItem) error {
	query := `
		INSERT INTO content_items (id, title, price, currency, file_ref, purchasable)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			file_ref = EXCLUDED.file_ref,
			purchasable = EXCLUDED.purchasable`

	if _, err := r.db.ExecContext(ctx, query,
		item.ID, item.Title, item.Price, item.Currency, item.FileRef, item.Purchasable); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// IncrementDownloads bumps download_count by one in storage.
func (r *PostgresRepository) IncrementDownloads(ctx context.Context, id string) error {
	query := `UPDATE content_items SET download_count = download_count + 1 WHERE id=$1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
