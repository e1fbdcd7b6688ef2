package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/client/purchase"
)

// OutcomeError ends a session that did not complete. Its text is the
// outcome message shown to the user.
type OutcomeError struct {
	Outcome purchase.Outcome
	Reason  error
}

func outcomeError(e purchase.Error) *OutcomeError {
	return &OutcomeError{Outcome: e.Outcome, Reason: e.Reason}
}

func (e *OutcomeError) Error() string { return e.Outcome.Message() }
func (e *OutcomeError) Unwrap() error { return e.Reason }

// Buy runs one purchase session for contentID in format, offering a retry
// on every retryable failure.
func (a *App) Buy(ctx context.Context, contentID, format string) error {
	bar := newProgressBar(a.out)

	o := purchase.New(a.store, &promptPayer{reader: a.reader, out: a.out}, a.transfer,
		purchase.WithRetry(a.config.RetryAttempts, a.config.RetryBaseDelay),
		purchase.WithProgress(bar.Update),
		purchase.WithObserver(a.render(bar)),
		purchase.WithObserver(a.record(ctx)),
		purchase.WithLogger(a.logger),
	)

	st, err := o.Start(ctx, contentID, format)
	for err == nil {
		e, ok := st.(purchase.Error)
		if !ok {
			break
		}
		if e.RetryableFrom() == nil {
			if e.Outcome == purchase.OutcomeAlreadyOwned {
				fmt.Fprintf(a.out, "Use 'download %s' to get it again.\n", contentID)
			}
			return outcomeError(e)
		}
		fmt.Fprintln(a.out, e.Outcome.Message())
		if !Confirm(a.reader, "Try again?", a.out) {
			return outcomeError(e)
		}
		st, err = o.Retry(ctx)
	}
	if err != nil {
		return err
	}

	if _, ok := st.(purchase.Idle); ok {
		fmt.Fprintln(a.out, "Purchase cancelled.")
	}
	return nil
}

// render prints the user-facing view of each transition.
func (a *App) render(bar *progressBar) purchase.Observer {
	return func(_, to purchase.State) {
		switch s := to.(type) {
		case purchase.AwaitingPayment:
			if s.Intent == nil {
				fmt.Fprintf(a.out, "Requesting %s (%s)...\n", s.ContentID, s.Format)
			}
		case purchase.VerifyingPayment:
			fmt.Fprintln(a.out, "Verifying payment...")
		case purchase.AwaitingToken:
			fmt.Fprintln(a.out, "Requesting download link...")
		case purchase.Delivering:
			fmt.Fprintln(a.out, "Downloading...")
		case purchase.Complete:
			bar.Finish()
			fmt.Fprintf(a.out, "Saved to %s (%s)\n", s.Delivery.Path, humanBytes(s.Delivery.Bytes))
		}
	}
}

// record keeps issued tokens and finished downloads in the library.
// Failures here never fail the purchase.
func (a *App) record(ctx context.Context) purchase.Observer {
	return func(from, to purchase.State) {
		switch s := to.(type) {
		case purchase.Delivering:
			if _, fresh := from.(purchase.AwaitingToken); !fresh {
				return
			}
			err := a.library.SaveToken(ctx, models.IssuedToken{
				Token:     s.Token.Value,
				ContentID: s.ContentID,
				Format:    s.Format,
				ExpiresAt: s.Token.ExpiresAt,
			})
			if err != nil {
				a.logger.Warn(ctx, "save token", "error", err)
			}
		case purchase.Complete:
			a.saveDownload(ctx, s.ContentID, s.Format, s.Delivery)
		}
	}
}

func (a *App) saveDownload(ctx context.Context, contentID, format string, d purchase.Delivery) {
	err := a.library.RecordDownload(ctx, models.Download{
		ContentID:    contentID,
		Format:       format,
		Path:         d.Path,
		FileRef:      d.FileRef,
		Bytes:        d.Bytes,
		Digest:       d.Digest,
		DownloadedAt: a.now().UTC(),
	})
	if err != nil {
		a.logger.Warn(ctx, "record download", "error", err)
	}
}
