package contents

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.ContentItem, error)
	Upsert(ctx context.Context, item *models.ContentItem) error
	IncrementDownloads(ctx context.Context, id string) error
}
