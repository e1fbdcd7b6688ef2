package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) SaveToken(ctx context.Context, t models.IssuedToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tokens (token, content_id, format, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET expires_at = excluded.expires_at
	`, t.Token, t.ContentID, t.Format, t.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LiveToken(ctx context.Context, contentID, format string, now time.Time) (*models.IssuedToken, error) {
	var (
		t       = models.IssuedToken{ContentID: contentID, Format: format}
		expires int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT token, expires_at FROM tokens
		WHERE content_id = ? AND format = ? AND expires_at > ?
		ORDER BY expires_at DESC LIMIT 1
	`, contentID, format, now.UnixNano()).Scan(&t.Token, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	t.ExpiresAt = time.Unix(0, expires).UTC()
	return &t, nil
}

func (r *SQLiteRepository) PruneTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune tokens: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) RecordDownload(ctx context.Context, d models.Download) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO downloads (content_id, format, path, file_ref, bytes, digest, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ContentID, d.Format, d.Path, d.FileRef, d.Bytes, d.Digest, d.DownloadedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Downloads(ctx context.Context) ([]models.Download, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT content_id, format, path, file_ref, bytes, digest, downloaded_at
		FROM downloads ORDER BY downloaded_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to select downloads: %w", err)
	}
	defer rows.Close()

	var result []models.Download
	for rows.Next() {
		var (
			d  models.Download
			at int64
		)
		if err := rows.Scan(&d.ContentID, &d.Format, &d.Path, &d.FileRef, &d.Bytes, &d.Digest, &at); err != nil {
			return nil, err
		}
		d.DownloadedAt = time.Unix(0, at).UTC()
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
