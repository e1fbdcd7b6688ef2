// Package common defines shared constants and sentinel errors used across
// client and server layers of gophstore. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// StorageConflict is a uniqueness violation raced by a concurrent writer.
	// The ownership registry recovers it as a successful grant; it never
	// leaves the repository layer.
	ErrStorageConflict = errors.New("storage conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Purchase errors.
	ErrAlreadyOwned        = errors.New("content already owned")
	ErrNotPurchasable      = errors.New("content not purchasable")
	ErrIntentNotFound      = errors.New("payment intent not found")
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrGatewayUnavailable covers network failures and timeouts talking to the
	// payment gateway. It is the only purchase error worth retrying.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrServiceUnavailable is the client-side view of an unreachable store
	// (connection refused, deadline exceeded). Retryable like the gateway.
	ErrServiceUnavailable = errors.New("service unavailable")

	// Download errors.
	ErrNotOwned              = errors.New("content not owned")
	ErrDownloadTokenNotFound = errors.New("download token not found")
	ErrDownloadTokenExpired  = errors.New("download token expired")

	// Auth errors (invalid, malformed or expired access token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Domain lists the errors that are surfaced verbatim to callers. Transports
// use the error text as the wire message and map it back with FromMessage.
var Domain = []error{
	ErrValidation,
	ErrAlreadyOwned,
	ErrNotPurchasable,
	ErrIntentNotFound,
	ErrPaymentNotCompleted,
	ErrGatewayUnavailable,
	ErrNotOwned,
	ErrDownloadTokenNotFound,
	ErrDownloadTokenExpired,
	ErrorUnauthorized,
	ErrInvalidToken,
	ErrTokenExpired,
}

// FromMessage returns the domain sentinel whose text equals msg.
func FromMessage(msg string) (error, bool) {
	for _, e := range Domain {
		if e.Error() == msg {
			return e, true
		}
	}
	return nil, false
}

// Surface returns the domain sentinel wrapped somewhere in err, if any.
func Surface(err error) (error, bool) {
	for _, e := range Domain {
		if errors.Is(err, e) {
			return e, true
		}
	}
	return nil, false
}
