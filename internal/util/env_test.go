package util

import (
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{"unset uses default", "", true, true},
		{"true", "true", false, true},
		{"numeric true", "1", false, true},
		{"yes", "YES", false, true},
		{"on with spaces", "  on  ", false, true},
		{"false", "false", true, false},
		{"numeric false", "0", true, false},
		{"off", "Off", true, false},
		{"invalid uses default", "maybe", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "ONBOARD_TEST_BOOL"
			if tt.value != "" {
				t.Setenv(key, tt.value)
			}
			if got := ParseBoolEnv(key, tt.def); got != tt.expected {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.expected)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	key := "ONBOARD_TEST_DURATION"

	if got := ParseDurationEnv(key, time.Minute); got != time.Minute {
		t.Errorf("expected default for unset var, got %v", got)
	}

	t.Setenv(key, "90s")
	if got := ParseDurationEnv(key, time.Minute); got != 90*time.Second {
		t.Errorf("expected 90s, got %v", got)
	}

	t.Setenv(key, "not-a-duration")
	if got := ParseDurationEnv(key, time.Minute); got != time.Minute {
		t.Errorf("expected default for invalid value, got %v", got)
	}
}
