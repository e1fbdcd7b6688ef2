package models

import "time"

type IntentStatus string

const (
	IntentPending   IntentStatus = "pending"
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s IntentStatus) Terminal() bool {
	return s == IntentSucceeded || s == IntentFailed
}

type PaymentIntent struct {
	ID               string
	UserID           string
	ContentID        string
	Amount           int64
	Currency         string
	ExternalIntentID string
	ClientHandle     string
	Status           IntentStatus
	CreatedAt        time.Time
	CompletedAt      *time.Time
}
