package model

import "time"

// Outcome classifies a single delivery attempt against the chat platform.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeRateLimited
	OutcomeBlocked
	OutcomeRejected
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Terminal reports whether the attempt must not be retried. Blocked and
// Rejected messages are dropped to keep the queue moving.
func (o Outcome) Terminal() bool {
	return o == OutcomeBlocked || o == OutcomeRejected
}

// SendResult is the normalized result of one DeliveryAdapter send.
type SendResult struct {
	Outcome Outcome

	// RetryAfter is the platform-requested backoff, set only for
	// OutcomeRateLimited.
	RetryAfter time.Duration

	// RemoteMessageID is the platform message ID, set only for
	// OutcomeDelivered.
	RemoteMessageID int

	// Err carries the underlying platform error for non-delivered
	// outcomes, for logging.
	Err error
}
