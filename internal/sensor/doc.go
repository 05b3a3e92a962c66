// Package sensor persists sensor configs and readings.
//
// A sensor config is the durable identity of one measurement stream on a
// device; readings append to it. First observation wins on config
// attributes, so noisy telemetry can never rewrite units or labels, and
// the display name is the only mutable field. An optional mirror copies
// every reading to InfluxDB without blocking ingestion.
package sensor
