package session

import "errors"

// Sentinel errors for session lifecycle.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoSubscriptions is returned from Start when the tenant has no
	// active subscription rules; no session is established.
	ErrNoSubscriptions = errors.New("session: tenant has no active subscriptions")

	// ErrAlreadyStarted is returned from Start on a session that is
	// already connecting or connected.
	ErrAlreadyStarted = errors.New("session: already started")

	// ErrConnectFailed is returned when the broker connection could not
	// be established.
	ErrConnectFailed = errors.New("session: broker connection failed")

	// ErrNotConnected is returned when publishing through a session that
	// is not connected.
	ErrNotConnected = errors.New("session: not connected")
)
