package intents

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetForUser(ctx context.Context, id, userID string) (*models.PaymentIntent, error)
	// MarkSucceeded and MarkFailed only move pending intents. They report
	// whether this call performed the transition.
	MarkSucceeded(ctx context.Context, id string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id string, at time.Time) (bool, error)
}
