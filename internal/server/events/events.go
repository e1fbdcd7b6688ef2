// Package events notifies downstream systems (the affiliate ledger) about
// completed purchases. Delivery is best effort.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

const PaymentSucceeded = "payment.succeeded"

// Envelope is the wire shape of every event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type PaymentSucceededData struct {
	IntentID         string `json:"intent_id"`
	ExternalIntentID string `json:"external_intent_id"`
	UserID           string `json:"user_id"`
	ContentID        string `json:"content_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
}

// NewEnvelope wraps data under a fresh event id.
func NewEnvelope(eventType string, at time.Time, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: uuid.NewString(), Type: eventType, OccurredAt: at.UTC(), Data: raw}, nil
}

type Publisher interface {
	// Publish sends e keyed by partitionKey, so events of one user stay ordered.
	Publish(ctx context.Context, e Envelope, partitionKey string) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, Envelope, string) error { return nil }
func (Nop) Close() error                                    { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Envelope, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}
