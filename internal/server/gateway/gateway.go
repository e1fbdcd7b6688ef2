// Package gateway talks to the external payment processor. It only creates
// intents and reads their authoritative status; it never retries.
package gateway

import "context"

// Status is the processor's view of an intent.
type Status string

const (
	StatusSucceeded             Status = "succeeded"
	StatusCanceled              Status = "canceled"
	StatusProcessing            Status = "processing"
	StatusRequiresPaymentMethod Status = "requires_payment_method"
	StatusRequiresConfirmation  Status = "requires_confirmation"
	StatusRequiresAction        Status = "requires_action"
)

// Final reports whether the processor will never move the intent again.
func (s Status) Final() bool {
	return s == StatusSucceeded || s == StatusCanceled
}

// Intent is what the processor hands back on creation. ClientHandle lets
// the purchasing client complete payment directly with the processor.
type Intent struct {
	ID           string
	ClientHandle string
}

type Gateway interface {
	Create(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	Retrieve(ctx context.Context, id string) (Status, error)
}
