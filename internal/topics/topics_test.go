package topics

import (
	"reflect"
	"testing"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "json array",
			raw:  `["tenant/a/telemetry", "tenant/b/telemetry"]`,
			want: []string{"tenant/a/telemetry", "tenant/b/telemetry"},
		},
		{
			name: "newline separated",
			raw:  "tenant/a/telemetry\ntenant/b/telemetry\n",
			want: []string{"tenant/a/telemetry", "tenant/b/telemetry"},
		},
		{
			name: "comma separated",
			raw:  "tenant/a/telemetry, tenant/b/telemetry",
			want: []string{"tenant/a/telemetry", "tenant/b/telemetry"},
		},
		{
			name: "single topic",
			raw:  "tenant/a/telemetry",
			want: []string{"tenant/a/telemetry"},
		},
		{
			name: "whitespace trimmed",
			raw:  "  tenant/a  ,  tenant/b  ",
			want: []string{"tenant/a", "tenant/b"},
		},
		{
			name: "duplicates removed preserving order",
			raw:  "b/topic, a/topic, b/topic",
			want: []string{"b/topic", "a/topic"},
		},
		{
			name: "empty entries dropped",
			raw:  "a/topic,,b/topic,",
			want: []string{"a/topic", "b/topic"},
		},
		{
			name: "empty string",
			raw:  "",
			want: []string{},
		},
		{
			name: "whitespace only",
			raw:  "   \n  ",
			want: []string{},
		},
		{
			name: "malformed json falls through to separators",
			raw:  `["unterminated`,
			want: []string{`["unterminated`},
		},
		{
			name: "json array with empties and dupes",
			raw:  `["a/b", "", "a/b", " c/d "]`,
			want: []string{"a/b", "c/d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseList(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"stm32/3", "stm32_3"},
		{"stm32_3", "stm32_3"},
		{"STM32-3", "stm32_3"},
		{"stm32//3", "stm32_3"},
		{"stm32_-3", "stm32_3"},
		{"  STM32_3  ", "stm32_3"},
		{"/leading/trailing/", "leading_trailing"},
		{"plain", "plain"},
		{"", ""},
		{"___", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeKey(tt.in); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeKeyEquivalence(t *testing.T) {
	variants := []string{"stm32/3", "stm32_3", "STM32-3", "Stm32_3"}
	want := NormalizeKey(variants[0])
	for _, v := range variants[1:] {
		if got := NormalizeKey(v); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q (equivalent to %q)", v, got, want, variants[0])
		}
	}
}
