package tokens

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.DownloadToken) error
	// Resolve looks a token value up together with the content's file
	// reference. Expiry is left to the caller.
	Resolve(ctx context.Context, tokenValue string) (*models.Resolution, error)
}
