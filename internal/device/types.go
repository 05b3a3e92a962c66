package device

import "time"

// Device represents one field device, identified per tenant by name.
//
// Devices are usually auto-provisioned the first time telemetry arrives
// on a topic the resolver cannot match, in which case DeviceType is
// "auto" and Status is "online". Manually provisioned devices may carry
// richer types set by the management plane.
type Device struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`

	DeviceType string `json:"device_type"`
	Status     string `json:"status"`

	// SubscriptionID links the device to the subscription rule whose
	// topics first matched it, nil when no rule matched at creation.
	SubscriptionID *string `json:"subscription_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Markers for auto-provisioned devices.
const (
	TypeAuto     = "auto"
	StatusOnline = "online"
)
