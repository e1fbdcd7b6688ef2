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
	"github.com/google/uuid"
)

// DeliveryTracker accounts for every successful token resolution.
type DeliveryTracker struct {
	tx    dbx.Transactor
	repos repomanager.RepositoryManager
	log   logging.Logger
	now   func() time.Time
}

func NewDeliveryTracker(tx dbx.Transactor, repos repomanager.RepositoryManager, log logging.Logger) *DeliveryTracker {
	return &DeliveryTracker{tx: tx, repos: repos, log: log.With("module", "delivery"), now: time.Now}
}

// RecordDelivery bumps the ownership and content counters and appends an
// audit row, all in one transaction. Counters are incremented in storage.
// A pair without ownership is ErrNotOwned and leaves every counter alone.
func (d *DeliveryTracker) RecordDelivery(ctx context.Context, tokenID, userID, contentID string) error {
	at := d.now().UTC()

	err := d.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		err := d.repos.Ownerships(tx).RecordDownload(ctx, userID, contentID, at)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNotOwned
		}
		if err != nil {
			return fmt.Errorf("increment ownership downloads: %w", err)
		}
		if err := d.repos.Contents(tx).IncrementDownloads(ctx, contentID); err != nil {
			return fmt.Errorf("increment content downloads: %w", err)
		}
		return d.repos.Deliveries(tx).Create(ctx, &models.DeliveryEvent{
			ID:          uuid.NewString(),
			TokenID:     tokenID,
			UserID:      userID,
			ContentID:   contentID,
			DeliveredAt: at,
		})
	})
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}

	d.log.Info(ctx, "delivery recorded", "user_id", userID, "content_id", contentID, "token_id", tokenID)
	return nil
}
