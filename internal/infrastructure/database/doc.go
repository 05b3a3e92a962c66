// Package database provides the SQLite persistence layer for FieldSense Core.
//
// It wraps database/sql with:
//   - Connection setup tuned for SQLite (WAL, busy timeout, single writer)
//   - Embedded schema migrations applied at startup
//   - Health checks for readiness probing
//
// The heavier domain repositories (devices, subscriptions, sensor configs
// and readings) live in their own packages and receive *sql.DB from here.
package database
