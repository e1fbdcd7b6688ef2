// Package tokens persists issued download tokens.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, t *models.DownloadToken) error {
	query := `INSERT INTO download_tokens (id, token_value, user_id, content_id, format, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query, t.ID, t.TokenValue, t.UserID, t.ContentID, t.Format, t.IssuedAt, t.ExpiresAt)
	if dbx.IsUniqueViolation(err) {
		return common.ErrStorageConflict
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Resolve(ctx context.Context, tokenValue string) (*models.Resolution, error) {
	query := `SELECT t.id, t.user_id, t.content_id, t.format, c.file_ref, t.expires_at
		FROM download_tokens t
		JOIN content_items c ON c.id = t.content_id
		WHERE t.token_value=$1`

	res := &models.Resolution{}
	err := r.db.QueryRowContext(ctx, query, tokenValue).Scan(
		&res.TokenID, &res.UserID, &res.ContentID, &res.Format, &res.FileRef, &res.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}
