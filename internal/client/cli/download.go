package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/client/purchase"
	"github.com/dmitrijs2005/gophstore/internal/common"
)

// ErrNotOwnedHint is returned by Download for content the user has not
// bought.
var ErrNotOwnedHint = errors.New("you do not own this, use 'buy' first")

// Download fetches content the user already owns. A live token from the
// library is reused; a dead one is replaced once.
func (a *App) Download(ctx context.Context, contentID, format string) error {
	tok, cached, err := a.token(ctx, contentID, format, false)
	if err != nil {
		return err
	}

	bar := newProgressBar(a.out)
	fmt.Fprintln(a.out, "Downloading...")

	d, err := a.transfer.Transfer(ctx, *tok, bar.Update)
	if err != nil && cached && linkDead(err) {
		a.logger.Info(ctx, "cached token rejected, requesting a new one", "content_id", contentID)
		if tok, _, err = a.token(ctx, contentID, format, true); err != nil {
			return err
		}
		d, err = a.transfer.Transfer(ctx, *tok, bar.Update)
	}
	if err != nil {
		return outcomeError(purchase.Delivering{ContentID: contentID, Format: format, Token: *tok}.Fail(err))
	}

	bar.Finish()
	a.saveDownload(ctx, contentID, format, *d)
	fmt.Fprintf(a.out, "Saved to %s (%s)\n", d.Path, humanBytes(d.Bytes))
	return nil
}

// token returns a download token and whether it came from the library.
func (a *App) token(ctx context.Context, contentID, format string, fresh bool) (*purchase.Token, bool, error) {
	if !fresh {
		saved, err := a.library.LiveToken(ctx, contentID, format, a.now())
		switch {
		case err == nil:
			return &purchase.Token{Value: saved.Token, ContentID: contentID, Format: format, ExpiresAt: saved.ExpiresAt}, true, nil
		case !errors.Is(err, common.ErrorNotFound):
			a.logger.Warn(ctx, "library token lookup", "error", err)
		}
	}

	tok, err := a.store.IssueToken(ctx, contentID, format)
	if err != nil {
		if errors.Is(err, common.ErrNotOwned) {
			return nil, false, ErrNotOwnedHint
		}
		return nil, false, outcomeError(purchase.AwaitingToken{ContentID: contentID, Format: format}.Fail(err))
	}

	err = a.library.SaveToken(ctx, models.IssuedToken{Token: tok.Value, ContentID: contentID, Format: format, ExpiresAt: tok.ExpiresAt})
	if err != nil {
		a.logger.Warn(ctx, "save token", "error", err)
	}
	return tok, false, nil
}

func linkDead(err error) bool {
	return errors.Is(err, common.ErrDownloadTokenExpired) || errors.Is(err, common.ErrDownloadTokenNotFound)
}
