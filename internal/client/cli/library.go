package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/client/purchase"
)

// Library prints what the user owns according to the store.
func (a *App) Library(ctx context.Context) error {
	owned, err := a.store.ListOwnerships(ctx)
	if err != nil {
		return storeError(err)
	}

	if len(owned) == 0 {
		fmt.Fprintln(a.out, "Your library is empty.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONTENT\tPRICE\tPURCHASED\tDOWNLOADS\tLAST DOWNLOAD")
	for _, o := range owned {
		last := "-"
		if o.LastDownloadAt != nil {
			last = o.LastDownloadAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			o.ContentID, strings.TrimSpace(formatPrice(o.PurchasePrice, "")), o.PurchaseDate.Local().Format(time.DateOnly), o.DownloadCount, last)
	}
	return w.Flush()
}

// Downloads prints the files fetched on this machine.
func (a *App) Downloads(ctx context.Context) error {
	list, err := a.library.Downloads(ctx)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "Nothing downloaded yet.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONTENT\tFORMAT\tSIZE\tWHEN\tPATH")
	for _, d := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.ContentID, d.Format, humanBytes(d.Bytes), d.DownloadedAt.Local().Format(time.DateTime), d.Path)
	}
	return w.Flush()
}

// Ping checks that the store answers.
func (a *App) Ping(ctx context.Context) error {
	if err := a.store.Ping(ctx); err != nil {
		return storeError(err)
	}
	fmt.Fprintf(a.out, "store at %s is up\n", a.config.ServerEndpointAddr)
	return nil
}

// storeError turns auth and reachability failures into their outcome
// messages and leaves anything else as is.
func storeError(err error) error {
	e := purchase.AwaitingToken{}.Fail(err)
	switch e.Outcome {
	case purchase.OutcomeUnauthorized, purchase.OutcomeUnavailable:
		return outcomeError(e)
	default:
		return err
	}
}
