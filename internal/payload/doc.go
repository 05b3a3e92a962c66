// Package payload normalizes heterogeneous device payloads into typed
// sensor readings.
//
// Field devices report in three encodings: bare relay commands
// ("relayon"), JSON objects with firmware-specific key names, and
// legacy plain-text lines ("Temperature1: 24.5 C"). The Parser handles
// all three, applying per-subscription field rules where declared and
// Chinese-label naming heuristics otherwise. Alert classification and
// default range bounds live here too, so every reading leaves this
// package fully attributed.
package payload
