package purchase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrIllegalTransition is returned when an action does not apply to
	// the current state, such as cancelling during delivery.
	ErrIllegalTransition = errors.New("purchase: illegal transition")

	// ErrNotRetryable is returned by Retry for terminal errors.
	ErrNotRetryable = errors.New("purchase: error is not retryable")
)

// Observer receives every transition after it is applied.
type Observer func(from, to State)

type Option func(*Orchestrator)

// WithRetry sets the attempts and first delay of the exponential backoff
// used for transient failures inside a step.
func WithRetry(attempts int, base time.Duration) Option {
	return func(o *Orchestrator) {
		if attempts < 1 {
			attempts = 1
		}
		if base <= 0 {
			base = 100 * time.Millisecond
		}
		o.attempts, o.base = attempts, base
	}
}

func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, fn) }
}

func WithProgress(fn func(Progress)) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.log = l.With("module", "purchase") }
}

// Orchestrator runs one purchase session. Start, Retry and Cancel may be
// called from different goroutines; a cancel that lands while a call is in
// flight lets the call finish and discards its result.
type Orchestrator struct {
	backend   Backend
	payer     Payer
	transfer  Transferer
	attempts  int
	base      time.Duration
	observers []Observer
	progress  func(Progress)
	log       logging.Logger

	mu    sync.Mutex
	state State
	epoch uint64
}

func New(b Backend, p Payer, t Transferer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:  b,
		payer:    p,
		transfer: t,
		attempts: 3,
		base:     500 * time.Millisecond,
		progress: func(Progress) {},
		log:      logging.Nop{},
		state:    Idle{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Start requests contentID and drives the session until it completes,
// fails or is cancelled. Only legal from Idle.
func (o *Orchestrator) Start(ctx context.Context, contentID, format string) (State, error) {
	o.mu.Lock()
	idle, ok := o.state.(Idle)
	if !ok {
		st := o.state
		o.mu.Unlock()
		return st, ErrIllegalTransition
	}
	next := idle.Request(contentID, format)
	from := o.swapLocked(next)
	o.mu.Unlock()
	o.notify(from, next)

	return o.drive(ctx), nil
}

// Retry re-enters the state recorded by the current Error and drives on.
func (o *Orchestrator) Retry(ctx context.Context) (State, error) {
	o.mu.Lock()
	e, ok := o.state.(Error)
	if !ok {
		st := o.state
		o.mu.Unlock()
		return st, ErrIllegalTransition
	}
	next, ok := e.Retry()
	if !ok {
		o.mu.Unlock()
		return e, ErrNotRetryable
	}
	from := o.swapLocked(next)
	o.mu.Unlock()
	o.notify(from, next)

	return o.drive(ctx), nil
}

// Cancel returns to Idle from AwaitingPayment or AwaitingToken. Any
// in-flight result is dropped when it arrives.
func (o *Orchestrator) Cancel() (State, error) {
	o.mu.Lock()
	var next State
	switch s := o.state.(type) {
	case AwaitingPayment:
		next = s.Cancel()
	case AwaitingToken:
		next = s.Cancel()
	default:
		st := o.state
		o.mu.Unlock()
		return st, ErrIllegalTransition
	}
	o.epoch++
	from := o.swapLocked(next)
	o.mu.Unlock()
	o.notify(from, next)

	return next, nil
}

func (o *Orchestrator) swapLocked(next State) State {
	from := o.state
	o.state = next
	return from
}

// commit applies next unless a cancel bumped the epoch since the step
// started.
func (o *Orchestrator) commit(epoch uint64, next State) bool {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return false
	}
	from := o.swapLocked(next)
	o.mu.Unlock()
	o.notify(from, next)
	return true
}

func (o *Orchestrator) notify(from, to State) {
	o.log.Debug(context.Background(), "transition", "from", from.Name(), "to", to.Name())
	for _, fn := range o.observers {
		fn(from, to)
	}
}

func (o *Orchestrator) drive(ctx context.Context) State {
	for {
		o.mu.Lock()
		st, epoch := o.state, o.epoch
		o.mu.Unlock()

		next, more := o.step(ctx, st)
		if !more {
			return st
		}
		if !o.commit(epoch, next) {
			o.log.Info(ctx, "result discarded after cancel", "state", st.Name())
			return o.State()
		}
	}
}

// step performs the work of st and returns the state it leads to. It
// reports false for resting states.
func (o *Orchestrator) step(ctx context.Context, st State) (State, bool) {
	switch s := st.(type) {
	case AwaitingPayment:
		if s.Intent == nil {
			in, err := withBackoff(ctx, o.backoff(), func(ctx context.Context) (*Intent, error) {
				return o.backend.CreateIntent(ctx, s.ContentID)
			})
			if err != nil {
				return s.Fail(err), true
			}
			return s.Created(*in), true
		}

		if err := o.payer.Pay(ctx, *s.Intent); err != nil {
			if errors.Is(err, ErrPaymentAborted) {
				return s.Cancel(), true
			}
			return s.Fail(err), true
		}
		next, _ := s.Confirm()
		return next, true

	case VerifyingPayment:
		_, err := withBackoff(ctx, o.backoff(), func(ctx context.Context) (struct{}, error) {
			return struct{}{}, o.backend.ConfirmIntent(ctx, s.Intent.ID)
		})
		if err != nil && !errors.Is(err, common.ErrAlreadyOwned) {
			return s.Fail(err), true
		}
		return s.Verified(), true

	case AwaitingToken:
		tok, err := withBackoff(ctx, o.backoff(), func(ctx context.Context) (*Token, error) {
			return o.backend.IssueToken(ctx, s.ContentID, s.Format)
		})
		if err != nil {
			return s.Fail(err), true
		}
		return s.Issued(*tok), true

	case Delivering:
		d, err := withBackoff(ctx, o.backoff(), func(ctx context.Context) (*Delivery, error) {
			return o.transfer.Transfer(ctx, s.Token, o.progress)
		})
		if err != nil {
			return s.Fail(err), true
		}
		return s.Completed(*d), true

	default:
		return nil, false
	}
}

func (o *Orchestrator) backoff() retry.Backoff {
	return retry.WithMaxRetries(uint64(o.attempts-1), retry.NewExponential(o.base))
}

// withBackoff retries fn while it fails with a transient error.
func withBackoff[T any](ctx context.Context, b retry.Backoff, fn func(context.Context) (T, error)) (T, error) {
	return retry.DoValue(ctx, b, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if err != nil && transient(err) {
			return v, retry.RetryableError(err)
		}
		return v, err
	})
}
