// Package intents persists payment intents mirrored from the gateway.
package intents

import (
	"context"
	"database/sql"
	"errors"
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

func (r *PostgresRepository) Create(ctx context.Context, in *models.PaymentIntent) error {
	query := `INSERT INTO payment_intents
		(id, user_id, content_id, amount, currency, external_intent_id, client_handle, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		in.ID, in.UserID, in.ContentID, in.Amount, in.Currency, in.ExternalIntentID, in.ClientHandle, string(in.Status), in.CreatedAt)
	if dbx.IsUniqueViolation(err) {
		return common.ErrStorageConflict
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetForUser returns the intent only when it belongs to userID.
func (r *PostgresRepository) GetForUser(ctx context.Context, id, userID string) (*models.PaymentIntent, error) {
	query := `SELECT id, user_id, content_id, amount, currency, external_intent_id, client_handle, status, created_at, completed_at
		FROM payment_intents WHERE id=$1 AND user_id=$2`

	var (
		in          models.PaymentIntent
		status      string
		completedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&in.ID, &in.UserID, &in.ContentID, &in.Amount, &in.Currency, &in.ExternalIntentID, &in.ClientHandle,
		&status, &in.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	in.Status = models.IntentStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		in.CompletedAt = &t
	}
	return &in, nil
}

func (r *PostgresRepository) MarkSucceeded(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.complete(ctx, id, models.IntentSucceeded, at)
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.complete(ctx, id, models.IntentFailed, at)
}

func (r *PostgresRepository) complete(ctx context.Context, id string, status models.IntentStatus, at time.Time) (bool, error) {
	query := `UPDATE payment_intents SET status=$2, completed_at=$3 WHERE id=$1 AND status='pending'`

	res, err := r.db.ExecContext(ctx, query, id, string(status), at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}
