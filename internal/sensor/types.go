package sensor

import "time"

// Config describes one sensor on a device. Created on first observation
// and never overwritten by telemetry; DisplayName is the only field with
// a mutation path.
type Config struct {
	ID         int64  `json:"id"`
	DeviceID   string `json:"device_id"`
	SensorType string `json:"sensor_type"`
	Unit       string `json:"unit"`

	DisplayName *string  `json:"display_name,omitempty"`
	MinValue    *float64 `json:"min_value,omitempty"`
	MaxValue    *float64 `json:"max_value,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reading is one stored observation. Append-only.
type Reading struct {
	ID             int64     `json:"id"`
	SensorConfigID int64     `json:"sensor_config_id"`
	Value          float64   `json:"value"`
	Timestamp      time.Time `json:"timestamp"`
	AlertStatus    string    `json:"alert_status"`
}
