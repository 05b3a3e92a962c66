package emqx

import "errors"

// Sentinel errors for admin API validation.
// Only Test returns errors; the query methods degrade to empty results.
var (
	// ErrUnreachable indicates the management API could not be reached.
	ErrUnreachable = errors.New("emqx: admin API unreachable")

	// ErrUnauthorized indicates the API key/secret pair was rejected.
	ErrUnauthorized = errors.New("emqx: admin API rejected credentials")
)
