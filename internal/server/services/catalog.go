package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/flagx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
)

// CatalogEntry is the file shape of a catalog item used for seeding.
type CatalogEntry struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Price       int64  `json:"price" yaml:"price"`
	Currency    string `json:"currency" yaml:"currency"`
	FileRef     string `json:"file_ref" yaml:"file_ref"`
	Purchasable *bool  `json:"purchasable" yaml:"purchasable"`
}

type catalogFile struct {
	Items []CatalogEntry `json:"items" yaml:"items"`
}

// Catalog is a thin write path for seeding items. The real catalog is an
// external system; this exists for development and operations.
type Catalog struct {
	tx    dbx.Transactor
	repos repomanager.RepositoryManager
	log   logging.Logger
}

func NewCatalog(tx dbx.Transactor, repos repomanager.RepositoryManager, log logging.Logger) *Catalog {
	return &Catalog{tx: tx, repos: repos, log: log.With("module", "catalog")}
}

func (c *Catalog) Put(ctx context.Context, e CatalogEntry) error {
	if e.ID == "" || e.FileRef == "" {
		return fmt.Errorf("%w: id and file_ref are required", common.ErrValidation)
	}
	if e.Price < 0 {
		return fmt.Errorf("%w: negative price", common.ErrValidation)
	}
	purchasable := true
	if e.Purchasable != nil {
		purchasable = *e.Purchasable
	}
	return c.repos.Contents(c.tx.Conn()).Upsert(ctx, &models.ContentItem{
		ID:          e.ID,
		Title:       e.Title,
		Price:       e.Price,
		Currency:    strings.ToLower(e.Currency),
		FileRef:     e.FileRef,
		Purchasable: purchasable,
	})
}

// Import loads a JSON or YAML catalog file and upserts every item.
func (c *Catalog) Import(ctx context.Context, path, defaultCurrency string) (int, error) {
	var f catalogFile
	if err := flagx.DecodeConfigFile(path, &f); err != nil {
		return 0, err
	}
	for i, e := range f.Items {
		if e.Currency == "" {
			e.Currency = defaultCurrency
		}
		if err := c.Put(ctx, e); err != nil {
			return i, fmt.Errorf("item %q: %w", e.ID, err)
		}
	}
	c.log.Info(ctx, "catalog imported", "path", path, "items", len(f.Items))
	return len(f.Items), nil
}
