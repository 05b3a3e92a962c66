package payload

import "encoding/json"

// Reading is one normalized sensor observation extracted from a payload.
type Reading struct {
	// Type identifies the sensor within its device, e.g. "Temperature1"
	// or "Relay Status". Readings for the same device and type append to
	// the same sensor history.
	Type string

	// Value is the numeric observation.
	Value float64

	// Unit is the measurement unit, e.g. "°C" or "%". Empty for unitless
	// sensors such as relays.
	Unit string

	// DisplayName is an optional human-facing label, e.g. "温度1".
	DisplayName string
}

// FieldRule declares how a payload key should be interpreted, overriding
// the heuristics. Rules come from a subscription's field-mapping document.
type FieldRule struct {
	// Type is the declared sensor type. Empty falls back to the payload key.
	Type string `json:"type"`

	// Unit is the declared measurement unit.
	Unit string `json:"unit"`

	// DisplayName is the declared human-facing label.
	DisplayName string `json:"display_name"`
}

// ParseFieldRules parses a subscription's raw field-mapping document.
//
// The document is a JSON object mapping payload keys to rules:
//
//	{"t1": {"type": "Temperature1", "unit": "°C", "display_name": "温度1"}}
//
// An empty document yields nil rules (pure heuristics). A malformed
// document returns an error; callers log it and proceed with nil rules
// rather than dropping messages.
func ParseFieldRules(doc string) (map[string]FieldRule, error) {
	if doc == "" {
		return nil, nil
	}

	var rules map[string]FieldRule
	if err := json.Unmarshal([]byte(doc), &rules); err != nil {
		return nil, err
	}
	return rules, nil
}
