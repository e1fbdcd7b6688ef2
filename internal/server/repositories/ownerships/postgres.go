// Package ownerships stores the durable (user, content) ownership records.
package ownerships

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, userID, contentID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ownerships WHERE user_id=$1 AND content_id=$2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, contentID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

// Insert relies on the (user_id, content_id) primary key. A unique violation
// that slips past ON CONFLICT is reported as common.ErrStorageConflict.
func (r *PostgresRepository) Insert(ctx context.Context, o *models.Ownership) (bool, error) {
	query := `
		INSERT INTO ownerships (user_id, content_id, purchase_price, purchase_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, content_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, o.UserID, o.ContentID, o.PurchasePrice, o.PurchaseDate)
	if dbx.IsUniqueViolation(err) {
		return false, common.ErrStorageConflict
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Ownership, error) {
	query := `SELECT user_id, content_id, purchase_price, purchase_date, download_count, last_download_at
		FROM ownerships WHERE user_id=$1 ORDER BY purchase_date, content_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select ownerships: %w", err)
	}
	defer rows.Close()

	var result []*models.Ownership
	for rows.Next() {
		var (
			o    models.Ownership
			last sql.NullTime
		)
		if err := rows.Scan(&o.UserID, &o.ContentID, &o.PurchasePrice, &o.PurchaseDate, &o.DownloadCount, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			t := last.Time
			o.LastDownloadAt = &t
		}
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RecordDownload bumps the per-ownership counter in storage.
func (r *PostgresRepository) RecordDownload(ctx context.Context, userID, contentID string, at time.Time) error {
	query := `UPDATE ownerships SET download_count = download_count + 1, last_download_at = $3
		WHERE user_id=$1 AND content_id=$2`

	res, err := r.db.ExecContext(ctx, query, userID, contentID, at)
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
