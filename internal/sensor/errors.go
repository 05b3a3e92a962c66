package sensor

import "errors"

// Sentinel errors for sensor persistence.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConfigNotFound is returned when a sensor config does not exist.
	ErrConfigNotFound = errors.New("sensor: config not found")
)
