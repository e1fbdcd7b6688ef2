// Package deliveries appends the delivery audit trail.
package deliveries

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.DeliveryEvent) error {
	query := `INSERT INTO delivery_events (id, token_id, user_id, content_id, delivered_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, e.ID, e.TokenID, e.UserID, e.ContentID, e.DeliveredAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
