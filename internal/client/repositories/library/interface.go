package library

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
)

// Repository keeps the user's download tokens and finished downloads.
type Repository interface {
	// SaveToken stores an issued token, replacing a row with the same value.
	SaveToken(ctx context.Context, t models.IssuedToken) error

	// LiveToken returns the token for contentID and format that expires
	// last, if it is still valid at now. It returns common.ErrorNotFound
	// otherwise.
	LiveToken(ctx context.Context, contentID, format string, now time.Time) (*models.IssuedToken, error)

	// PruneTokens drops tokens expired at now and reports how many went.
	PruneTokens(ctx context.Context, now time.Time) (int64, error)

	RecordDownload(ctx context.Context, d models.Download) error

	// Downloads lists finished downloads, newest first.
	Downloads(ctx context.Context) ([]models.Download, error)
}
