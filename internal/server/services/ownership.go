package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
)

// OwnershipRegistry is the single source of truth for who owns what.
type OwnershipRegistry struct {
	tx    dbx.Transactor
	repos repomanager.RepositoryManager
	log   logging.Logger
	now   func() time.Time
}

func NewOwnershipRegistry(tx dbx.Transactor, repos repomanager.RepositoryManager, log logging.Logger) *OwnershipRegistry {
	return &OwnershipRegistry{tx: tx, repos: repos, log: log.With("module", "ownership"), now: time.Now}
}

func (r *OwnershipRegistry) HasOwnership(ctx context.Context, userID, contentID string) (bool, error) {
	ok, err := r.repos.Ownerships(r.tx.Conn()).Exists(ctx, userID, contentID)
	if err != nil {
		return false, fmt.Errorf("check ownership: %w", err)
	}
	return ok, nil
}

// Grant records ownership once. Repeated or racing grants for the same
// pair report created=false and no error.
func (r *OwnershipRegistry) Grant(ctx context.Context, userID, contentID string, price int64) (bool, error) {
	return r.grant(ctx, r.tx.Conn(), userID, contentID, price)
}

func (r *OwnershipRegistry) grant(ctx context.Context, db dbx.DBTX, userID, contentID string, price int64) (bool, error) {
	created, err := r.repos.Ownerships(db).Insert(ctx, &models.Ownership{
		UserID:        userID,
		ContentID:     contentID,
		PurchasePrice: price,
		PurchaseDate:  r.now().UTC(),
	})
	if errors.Is(err, common.ErrStorageConflict) {
		r.log.Info(ctx, "grant raced, ownership already present", "user_id", userID, "content_id", contentID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("grant ownership: %w", err)
	}
	if created {
		r.log.Info(ctx, "ownership granted", "user_id", userID, "content_id", contentID, "price", price)
	}
	return created, nil
}

func (r *OwnershipRegistry) List(ctx context.Context, userID string) ([]*models.Ownership, error) {
	list, err := r.repos.Ownerships(r.tx.Conn()).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list ownerships: %w", err)
	}
	return list, nil
}
