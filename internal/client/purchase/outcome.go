package purchase

// Outcome is the user-facing classification of a failed session. Each
// value has its own message; there is no generic failure.
type Outcome int

const (
	OutcomePaymentFailed Outcome = iota + 1
	OutcomeDownloadFailed
	OutcomeAlreadyOwned
	OutcomeLinkExpired
	OutcomeNotAvailable
	OutcomeUnavailable
	OutcomeUnauthorized
)

func (o Outcome) Message() string {
	switch o {
	case OutcomePaymentFailed:
		return "payment failed, retry"
	case OutcomeDownloadFailed:
		return "download failed, retry (you will not be charged again)"
	case OutcomeAlreadyOwned:
		return "you already own this"
	case OutcomeLinkExpired:
		return "link expired, request a new one"
	case OutcomeNotAvailable:
		return "not available for purchase"
	case OutcomeUnavailable:
		return "service unavailable, retry"
	case OutcomeUnauthorized:
		return "not signed in, check your access token"
	default:
		return ""
	}
}

func (o Outcome) String() string { return o.Message() }
