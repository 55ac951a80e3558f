package sanitize

import (
	"strings"
	"testing"
)

func TestActionName_SizeLimit(t *testing.T) {
	// Default limit is 4096
	limit := 4096

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := strings.Repeat("a", tt.inputSize)
			_, err := ActionName(input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ActionName() expected error for size %d, got nil", tt.inputSize)
				}
			} else {
				if err != nil {
					t.Errorf("ActionName() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestActionName_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Action", "confirm_order", "confirm_order"},
		{"Safe Controls", "multi\nline\taction", "multi\nline\taction"},
		{"ANSI Code", "\x1b[31mred\x1b[0m", "[31mred[0m"}, // ESC removed
		{"Null Byte", "null\x00byte", "nullbyte"},         // NULL removed
		{"Bell", "ding\x07", "ding"},                      // BEL removed
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ActionName(tt.input)
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestActionName_EnvOverride(t *testing.T) {
	t.Setenv("ESPALIER_MAX_ACTION_SIZE", "10")

	// Input len 11 -> should fail
	if _, err := ActionName("12345678901"); err == nil {
		t.Error("Expected error for input > 10 when env var is set")
	}

	// Input len 5 -> should pass
	if _, err := ActionName("12345"); err != nil {
		t.Error("Unexpected error for valid input")
	}
}

func TestActionName_InvalidUTF8(t *testing.T) {
	input := "\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98"
	if _, err := ActionName(input); err != ErrInvalidUTF8 {
		t.Errorf("Expected ErrInvalidUTF8, got %v", err)
	}
}
