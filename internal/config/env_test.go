package config

import "testing"

func TestBoolEnvOrDefault(t *testing.T) {
	t.Setenv("BOOL_TEST", "")
	if got := boolEnvOrDefault("BOOL_TEST", true); !got {
		t.Fatalf("expected default true when unset")
	}

	cases := []struct {
		val      string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"FALSE", false},
		{"0", false},
		{"no", false},
		{"maybe", true}, // falls back to default on unknown
	}

	for _, tc := range cases {
		t.Setenv("BOOL_TEST", tc.val)
		if got := boolEnvOrDefault("BOOL_TEST", true); got != tc.expected {
			t.Fatalf("expected %v for %s, got %v", tc.expected, tc.val, got)
		}
	}
}

func TestDurationEnvOrDefault(t *testing.T) {
	cases := map[string]Duration{
		"":        defaultTickInterval,
		"8ms":     8 * Duration(1e6),
		"-5ms":    defaultTickInterval,
		"0s":      defaultTickInterval,
		"fifteen": defaultTickInterval,
	}
	for raw, want := range cases {
		t.Setenv("DURATION_TEST", raw)
		if got := durationEnvOrDefault("DURATION_TEST", defaultTickInterval); got != want {
			t.Fatalf("durationEnvOrDefault(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("STRING_TEST", "")
	if got := envOrDefault("STRING_TEST", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback when unset, got %s", got)
	}
	t.Setenv("STRING_TEST", "value")
	if got := envOrDefault("STRING_TEST", "fallback"); got != "value" {
		t.Fatalf("expected env value, got %s", got)
	}
}
