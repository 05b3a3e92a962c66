// Package topics parses stored topic lists and normalizes topic keys.
//
// Subscription rules persist their MQTT topic filters as a single raw
// string in one of three historical encodings (JSON array, newline list,
// comma list); ParseList accepts all of them. NormalizeKey provides the
// canonical form used to match devices against subscription topics when
// an exact match fails.
package topics
