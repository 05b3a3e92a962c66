package device

import "errors"

// Sentinel errors for device operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDeviceNotFound is returned when a device does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device whose name is
	// already taken within the tenant.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrUnresolvableTopic is returned when a topic has too few segments
	// to derive a device name from. Callers log and drop the message.
	ErrUnresolvableTopic = errors.New("device: topic cannot be resolved to a device")
)
