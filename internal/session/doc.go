// Package session manages one tenant's MQTT connection and ingest
// pipeline.
//
// A session moves Disconnected → Connecting → Connected and falls back
// to Disconnected on any connection loss; it never reconnects on its
// own. Inbound messages flow through a bounded queue into a single
// consumer goroutine, so each tenant's telemetry is processed serially:
// resolve device, parse payload, persist readings. Per-message failures
// are logged and skipped, never fatal to the session.
package session
