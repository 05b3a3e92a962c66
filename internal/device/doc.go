// Package device provides device identity for telemetry ingestion.
//
// Every inbound message is attributed to a device. The Resolver derives
// candidate device names from the message's topic and, when no existing
// device matches, auto-provisions one so telemetry is never lost waiting
// for manual registration. Device names are unique per tenant.
package device
