package subscription

import "errors"

// Sentinel errors for subscription persistence.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrSubscriptionNotFound is returned when a subscription rule does not exist.
	ErrSubscriptionNotFound = errors.New("subscription: not found")

	// ErrCredentialNotFound is returned when a broker credential does not exist.
	ErrCredentialNotFound = errors.New("subscription: broker credential not found")
)
