package purchase

import (
	"errors"

	"github.com/dmitrijs2005/gophstore/internal/common"
)

// State is one step of a purchase session. Each state is its own type and
// carries only the transitions that are legal from it.
type State interface {
	Name() string
	state()
}

// Idle is the resting state before a request and after a cancel.
type Idle struct{}

func (Idle) Name() string { return "Idle" }
func (Idle) state()       {}

// Request starts a session for contentID delivered in format.
func (Idle) Request(contentID, format string) AwaitingPayment {
	return AwaitingPayment{ContentID: contentID, Format: format}
}

// AwaitingPayment first obtains an intent from the store, then waits for
// the user to pay it. Intent is nil until the store created one.
type AwaitingPayment struct {
	ContentID string
	Format    string
	Intent    *Intent
}

func (AwaitingPayment) Name() string { return "AwaitingPayment" }
func (AwaitingPayment) state()       {}

func (s AwaitingPayment) Created(in Intent) AwaitingPayment {
	s.Intent = &in
	return s
}

// Confirm moves to verification once the user reports payment. It is only
// possible after an intent exists.
func (s AwaitingPayment) Confirm() (VerifyingPayment, bool) {
	if s.Intent == nil {
		return VerifyingPayment{}, false
	}
	return VerifyingPayment{ContentID: s.ContentID, Format: s.Format, Intent: *s.Intent}, true
}

func (s AwaitingPayment) Cancel() Idle { return Idle{} }

func (s AwaitingPayment) Fail(err error) Error {
	switch {
	case errors.Is(err, common.ErrAlreadyOwned):
		return terminal(err, OutcomeAlreadyOwned)
	case errors.Is(err, common.ErrNotPurchasable), errors.Is(err, common.ErrValidation):
		return terminal(err, OutcomeNotAvailable)
	case unauthorized(err):
		return terminal(err, OutcomeUnauthorized)
	case transient(err):
		return retryable(err, OutcomeUnavailable, s)
	default:
		return retryable(err, OutcomePaymentFailed, s)
	}
}

// VerifyingPayment asks the store to confirm the intent with the gateway.
type VerifyingPayment struct {
	ContentID string
	Format    string
	Intent    Intent
}

func (VerifyingPayment) Name() string { return "VerifyingPayment" }
func (VerifyingPayment) state()       {}

func (s VerifyingPayment) Verified() AwaitingToken {
	return AwaitingToken{ContentID: s.ContentID, Format: s.Format}
}

// Fail keeps the intent when payment simply is not done yet, so retrying
// lets the user finish paying the same intent instead of opening another.
func (s VerifyingPayment) Fail(err error) Error {
	switch {
	case errors.Is(err, common.ErrPaymentNotCompleted):
		in := s.Intent
		return retryable(err, OutcomePaymentFailed, AwaitingPayment{ContentID: s.ContentID, Format: s.Format, Intent: &in})
	case errors.Is(err, common.ErrIntentNotFound):
		return retryable(err, OutcomePaymentFailed, AwaitingPayment{ContentID: s.ContentID, Format: s.Format})
	case unauthorized(err):
		return terminal(err, OutcomeUnauthorized)
	case transient(err):
		return retryable(err, OutcomeUnavailable, s)
	default:
		return retryable(err, OutcomePaymentFailed, s)
	}
}

// AwaitingToken requests a download token. Payment is settled from here on.
type AwaitingToken struct {
	ContentID string
	Format    string
}

func (AwaitingToken) Name() string { return "AwaitingToken" }
func (AwaitingToken) state()       {}

func (s AwaitingToken) Issued(tok Token) Delivering {
	return Delivering{ContentID: s.ContentID, Format: s.Format, Token: tok}
}

func (s AwaitingToken) Cancel() Idle { return Idle{} }

func (s AwaitingToken) Fail(err error) Error {
	switch {
	case unauthorized(err):
		return terminal(err, OutcomeUnauthorized)
	case transient(err):
		return retryable(err, OutcomeUnavailable, s)
	default:
		return retryable(err, OutcomeDownloadFailed, s)
	}
}

// Delivering transfers the bytes. It cannot be cancelled, only retried.
type Delivering struct {
	ContentID string
	Format    string
	Token     Token
}

func (Delivering) Name() string { return "Delivering" }
func (Delivering) state()       {}

func (s Delivering) Completed(d Delivery) Complete {
	return Complete{ContentID: s.ContentID, Format: s.Format, Delivery: d}
}

// Fail sends dead tokens back for a fresh one and retries anything else
// with the same token.
func (s Delivering) Fail(err error) Error {
	switch {
	case errors.Is(err, common.ErrDownloadTokenExpired), errors.Is(err, common.ErrDownloadTokenNotFound):
		return retryable(err, OutcomeLinkExpired, AwaitingToken{ContentID: s.ContentID, Format: s.Format})
	case transient(err):
		return retryable(err, OutcomeUnavailable, s)
	default:
		return retryable(err, OutcomeDownloadFailed, s)
	}
}

// Complete is the successful end of a session.
type Complete struct {
	ContentID string
	Format    string
	Delivery  Delivery
}

func (Complete) Name() string { return "Complete" }
func (Complete) state()       {}

// Error records why a session stopped and where Retry resumes it.
type Error struct {
	Reason  error
	Outcome Outcome
	from    State
}

func (Error) Name() string { return "Error" }
func (Error) state()       {}

// RetryableFrom is the state Retry re-enters, or nil for terminal errors.
func (e Error) RetryableFrom() State { return e.from }

func (e Error) Retry() (State, bool) {
	if e.from == nil {
		return nil, false
	}
	return e.from, true
}

func terminal(err error, o Outcome) Error {
	return Error{Reason: err, Outcome: o}
}

func retryable(err error, o Outcome, from State) Error {
	return Error{Reason: err, Outcome: o, from: from}
}

func transient(err error) bool {
	return errors.Is(err, common.ErrGatewayUnavailable) || errors.Is(err, common.ErrServiceUnavailable)
}

func unauthorized(err error) bool {
	return errors.Is(err, common.ErrorUnauthorized) ||
		errors.Is(err, common.ErrInvalidToken) ||
		errors.Is(err, common.ErrTokenExpired)
}
