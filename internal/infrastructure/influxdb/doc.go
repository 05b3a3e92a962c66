// Package influxdb provides an optional time-series mirror for sensor readings.
//
// SQLite remains the system of record; when this client is configured,
// every appended reading is also written to InfluxDB for dashboards and
// retention-friendly range queries. Writes are batched and non-blocking,
// so a slow or unreachable InfluxDB never stalls message ingestion.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // mirror off, readings go to SQLite only
//	}
//	defer client.Close()
//
//	client.WriteSensorReading(tenantID, deviceID, "Temperature1", 24.5, "normal", ts)
//
// Async write failures surface through SetOnError; the caller decides
// whether to log or alert.
package influxdb
