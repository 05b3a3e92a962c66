package payload

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fieldsense/fieldsense-core/internal/infrastructure/logging"
)

// Parser normalizes raw telemetry payloads into sensor readings.
//
// Three tiers run in priority order:
//  1. Literal relay commands ("relayon"/"relayoff") short-circuit.
//  2. JSON objects are walked key by key, applying field rules where
//     declared and naming heuristics otherwise.
//  3. Plain text falls through to a fixed regex extraction table.
//
// Parsing never fails: unusable payloads simply yield zero readings.
type Parser struct {
	logger *logging.Logger
}

// NewParser creates a Parser.
func NewParser(logger *logging.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse extracts sensor readings from a raw payload.
//
// Parameters:
//   - raw: The payload as received from the broker
//   - rules: Field rules from the matched subscription, nil for pure
//     heuristics (including when the mapping document was malformed)
//
// Returns:
//   - []Reading: Zero or more normalized readings, never nil on success
func (p *Parser) Parse(raw string, rules map[string]FieldRule) []Reading {
	trimmed := strings.TrimSpace(raw)

	// Tier 1: literal relay state reports.
	switch strings.ToLower(trimmed) {
	case "relayon":
		return []Reading{{Type: "Relay Status", Value: 1}}
	case "relayoff":
		return []Reading{{Type: "Relay Status", Value: 0}}
	}

	// Tier 2: JSON object payloads.
	if strings.HasPrefix(trimmed, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
			return p.parseJSON(fields, rules)
		}
		p.logger.Warn("malformed JSON payload, trying text extraction", "payload_len", len(raw))
	}

	// Tier 3: regex extraction from plain text.
	return parseText(trimmed)
}

// parseJSON converts a decoded JSON object into readings.
func (p *Parser) parseJSON(fields map[string]any, rules map[string]FieldRule) []Reading {
	readings := make([]Reading, 0, len(fields))

	for key, value := range fields {
		rule, mapped := rules[key]

		var reading Reading
		if mapped {
			reading = readingFromRule(key, rule)
		} else {
			r, ok := readingFromHeuristics(key)
			if !ok {
				continue
			}
			reading = r
		}

		num, ok := p.coerceValue(key, reading.Type, value)
		if !ok {
			continue
		}
		reading.Value = num
		readings = append(readings, reading)
	}

	return readings
}

// readingFromRule builds the reading skeleton for a mapped key.
// A declared type differing from the key doubles as an implicit display
// name when none is declared.
func readingFromRule(key string, rule FieldRule) Reading {
	r := Reading{
		Type:        rule.Type,
		Unit:        rule.Unit,
		DisplayName: rule.DisplayName,
	}
	if r.Type == "" {
		r.Type = key
	}
	if r.DisplayName == "" && rule.Type != "" && rule.Type != key {
		r.DisplayName = rule.Type
	}
	return r
}

// readingFromHeuristics builds the reading skeleton for an unmapped key,
// or reports false when the key is not recognized as a sensor.
func readingFromHeuristics(key string) (Reading, bool) {
	lower := strings.ToLower(key)
	digits := trailingDigits.FindString(lower)

	switch {
	case strings.Contains(lower, "temp"):
		return Reading{Type: key, Unit: "°C", DisplayName: "温度" + digits}, true
	case strings.Contains(lower, "hum"):
		return Reading{Type: key, Unit: "%", DisplayName: "湿度" + digits}, true
	case strings.Contains(lower, "relay"), strings.Contains(lower, "realy"):
		display := "继电器"
		if isRelayInputKey(lower) {
			display = "继电器输入"
		}
		return Reading{Type: key, DisplayName: display}, true
	}

	return Reading{}, false
}

// isRelayInputKey recognizes the relay-input key spellings seen in the
// field, including the persistent "realy" firmware typo.
func isRelayInputKey(lower string) bool {
	switch lower {
	case "relay_in", "relayin", "realy_in", "realyin", "relay-in", "realy-in":
		return true
	}
	return false
}

// relayStates maps textual relay state values to numeric readings.
var relayStates = map[string]float64{
	"on": 1, "open": 1, "true": 1, "1": 1, "active": 1, "enabled": 1,
	"off": 0, "close": 0, "false": 0, "0": 0, "inactive": 0, "disabled": 0,
}

// coerceValue converts a JSON value to a float64 reading value.
// Returns false when the value cannot represent a reading; the caller
// skips the key.
func (p *Parser) coerceValue(key, sensorType string, value any) (float64, bool) {
	relayLike := isRelayLike(key) || isRelayLike(sensorType)

	switch v := value.(type) {
	case float64:
		return v, true
	case bool:
		if relayLike {
			if v {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	case string:
		if relayLike {
			if num, ok := relayStates[strings.ToLower(strings.TrimSpace(v))]; ok {
				return num, true
			}
		}
		num, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			p.logger.Warn("unparseable payload value", "key", key, "value", v)
			return 0, false
		}
		return num, true
	default:
		return 0, false
	}
}

// isRelayLike reports whether a key or sensor type names a switching
// output, in any of its observed spellings.
func isRelayLike(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "relay") ||
		strings.Contains(lower, "switch") ||
		strings.Contains(lower, "realy")
}

// parseText applies the fixed regex table to a plain-text payload.
func parseText(raw string) []Reading {
	var readings []Reading
	for _, rule := range regexRules {
		m := rule.pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		readings = append(readings, Reading{
			Type:        rule.sensorType,
			Value:       value,
			Unit:        rule.unit,
			DisplayName: rule.displayName,
		})
	}
	if readings == nil {
		return []Reading{}
	}
	return readings
}
