package registry

import "errors"

// Sentinel errors for registry and publisher operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when a tenant session could not be
	// brought to the connected state within the readiness bounds.
	ErrNotConnected = errors.New("registry: tenant session not connected")

	// ErrPublishRejected is returned when the broker rejected a publish
	// after the session was connected.
	ErrPublishRejected = errors.New("registry: publish rejected by broker")
)
