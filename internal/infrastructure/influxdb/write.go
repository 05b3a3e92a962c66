package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorReading mirrors a persisted sensor reading to InfluxDB.
//
// This is the primary method for the reading mirror. The write is
// non-blocking; data is batched and sent asynchronously, so ingestion
// never stalls on the time-series backend.
//
// Parameters:
//   - tenantID: Owning tenant (tag)
//   - deviceID: Device the reading belongs to (tag)
//   - sensorType: Sensor type, e.g. "Temperature1" (tag)
//   - value: The numeric reading
//   - alertStatus: Classification at ingest time ("normal", "warning", "alert")
//   - timestamp: The reading's timestamp
//
// Example:
//
//	client.WriteSensorReading("tenant-7", deviceID, "Temperature1", 24.5, "normal", ts)
func (c *Client) WriteSensorReading(tenantID, deviceID, sensorType string, value float64, alertStatus string, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"tenant_id":   tenantID,
			"device_id":   deviceID,
			"sensor_type": sensorType,
		},
		map[string]interface{}{
			"value":        value,
			"alert_status": alertStatus,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this for measurements that don't fit WriteSensorReading.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
