// Package emqx queries a broker's EMQX management API for client
// connection status.
//
// The core uses this to answer "is device X currently connected" without
// tracking broker state itself. Status is best-effort by design: every
// query method degrades to an empty result on failure so a flaky admin
// API can never disturb telemetry ingestion. Only Test, used to validate
// a credential, surfaces errors.
package emqx
