package ownerships

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type Repository interface {
	Exists(ctx context.Context, userID, contentID string) (bool, error)
	// Insert adds o unless the pair already exists. created is false when
	// another writer got there first.
	Insert(ctx context.Context, o *models.Ownership) (created bool, err error)
	ListByUser(ctx context.Context, userID string) ([]*models.Ownership, error)
	RecordDownload(ctx context.Context, userID, contentID string, at time.Time) error
}
