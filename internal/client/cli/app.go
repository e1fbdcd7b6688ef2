package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/config"
	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/client/purchase"
	"github.com/dmitrijs2005/gophstore/internal/client/repositories"
	"github.com/dmitrijs2005/gophstore/internal/client/repositories/library"
	"github.com/dmitrijs2005/gophstore/internal/client/transfer"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

// Store is the part of the backend the CLI uses.
type Store interface {
	purchase.Backend
	ListOwnerships(ctx context.Context) ([]models.Ownership, error)
	Ping(ctx context.Context) error
}

type App struct {
	config   *config.Config
	store    Store
	transfer purchase.Transferer
	library  library.Repository
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer
	now      func() time.Time
	closers  []func() error
}

// NewApp opens the library database and the store connection named by c.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer, l logging.Logger) (*App, error) {
	repos, err := repositories.InitDatabase(ctx, c.LibraryDBPath)
	if err != nil {
		return nil, err
	}

	store, err := client.NewStoreClient(c.ServerEndpointAddr, c.AccessToken, c.RequestTimeout)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	tr := transfer.NewHTTPTransferer(c.HTTPBaseURL, c.DownloadDir, c.RequestTimeout, l)

	app := newApp(c, store, tr, repos.Library, in, out, l)
	app.closers = append(app.closers, repos.Close, store.Close)
	return app, nil
}

func newApp(c *config.Config, s Store, t purchase.Transferer, lib library.Repository, in io.Reader, out io.Writer, l logging.Logger) *App {
	return &App{
		config:   c,
		store:    s,
		transfer: t,
		library:  lib,
		logger:   l,
		reader:   bufio.NewReader(in),
		out:      out,
		now:      time.Now,
	}
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
