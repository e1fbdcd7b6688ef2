// Package purchase drives one purchase-and-download session as an explicit
// state machine: payment, token acquisition, transfer and completion, with
// retry and cancel rules that never charge a user twice.
package purchase

import (
	"context"
	"errors"
	"time"
)

// Intent is a payment intent as the client sees it. ClientHandle is what
// the user needs to complete payment with the processor.
type Intent struct {
	ID           string
	ClientHandle string
	Amount       int64
	Currency     string
}

// Token is an issued download token.
type Token struct {
	Value     string
	ContentID string
	Format    string
	ExpiresAt time.Time
}

// Progress reports transferred bytes. Total is -1 when unknown.
type Progress struct {
	Done  int64
	Total int64
}

// Delivery describes a finished transfer.
type Delivery struct {
	Path    string
	FileRef string
	Bytes   int64
	Digest  string
}

// Backend is the store API the orchestrator talks to.
type Backend interface {
	CreateIntent(ctx context.Context, contentID string) (*Intent, error)
	ConfirmIntent(ctx context.Context, intentID string) error
	IssueToken(ctx context.Context, contentID, format string) (*Token, error)
}

// Payer lets the user complete payment for an intent. It returns once the
// user says payment is done, or ErrPaymentAborted if they walk away.
type Payer interface {
	Pay(ctx context.Context, intent Intent) error
}

// Transferer resolves a token and moves the bytes, reporting progress.
type Transferer interface {
	Transfer(ctx context.Context, token Token, progress func(Progress)) (*Delivery, error)
}

// ErrPaymentAborted is returned by a Payer when the user gives up. The
// session goes back to Idle instead of failing.
var ErrPaymentAborted = errors.New("payment aborted")
