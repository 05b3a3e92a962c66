// Package registry manages tenant sessions and outbound publishing.
//
// The Registry holds at most one session per tenant and serializes each
// tenant's Start/Stop/Restart through a per-tenant mutex, closing the
// window where concurrent lifecycle calls could interleave connects and
// disconnects. The Publisher rides on the registry: it lazily starts a
// tenant's session, waits (bounded) for readiness, and publishes with
// structured failure reasons.
package registry
