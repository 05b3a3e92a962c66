package payload

import "regexp"

// regexRule extracts one sensor value from a plain-text payload.
type regexRule struct {
	sensorType  string
	unit        string
	displayName string
	pattern     *regexp.Regexp
}

// regexRules is the fixed extraction table for plain-text payloads from
// legacy firmware. Order matters only for the order of emitted readings;
// each rule matches at most once per payload.
var regexRules = []regexRule{
	{"Temperature1", "°C", "温度1", regexp.MustCompile(`Temperature1:\s*([\d.]+)\s*C`)},
	{"Humidity1", "%", "湿度1", regexp.MustCompile(`Humidity1:\s*([\d.]+)\s*%`)},
	{"Temperature2", "°C", "温度2", regexp.MustCompile(`Temperature2:\s*([\d.]+)\s*C`)},
	{"Humidity2", "%", "湿度2", regexp.MustCompile(`Humidity2:\s*([\d.]+)\s*%`)},
	{"Relay Status", "", "继电器", regexp.MustCompile(`Relay Status:\s*(\d)`)},
	{"PB8 Level", "", "", regexp.MustCompile(`PB8 Level:\s*(\d)`)},
}

// trailingDigits matches the digit suffix of a payload key, used to build
// numbered display names like 温度2 from keys like "temp2".
var trailingDigits = regexp.MustCompile(`\d+`)
