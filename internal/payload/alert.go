package payload

import "strings"

// Alert status values recorded with each reading.
const (
	StatusNormal  = "normal"
	StatusWarning = "warning"
	StatusAlert   = "alert"
)

// Classification thresholds. Temperature in °C, humidity in percent.
const (
	tempAlertAbove = 30.0
	tempWarnAbove  = 28.0
	humAlertAbove  = 70.0
	humWarnAbove   = 65.0
)

// ClassifyAlert assigns an alert status based on sensor type and value.
//
// Temperature-like sensors alert above 30 and warn above 28; humidity-like
// sensors alert above 70 and warn above 65. Everything else is normal.
func ClassifyAlert(sensorType string, value float64) string {
	lower := strings.ToLower(sensorType)

	switch {
	case strings.Contains(lower, "temp"):
		if value > tempAlertAbove {
			return StatusAlert
		}
		if value > tempWarnAbove {
			return StatusWarning
		}
	case strings.Contains(lower, "hum"):
		if value > humAlertAbove {
			return StatusAlert
		}
		if value > humWarnAbove {
			return StatusWarning
		}
	}

	return StatusNormal
}

// DefaultBounds returns the plausible value range for a sensor type,
// used to seed min/max on auto-created sensor configs.
func DefaultBounds(sensorType string) (min, max float64) {
	lower := strings.ToLower(sensorType)

	if strings.Contains(lower, "temp") {
		return -40, 80
	}
	return 0, 100
}
