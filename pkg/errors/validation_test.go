package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"positive", 1.5, false},
		{"negative", -0.1, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("labelDensity", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNonNegative(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSetting) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidSetting)
			}
		})
	}
}

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("cellSize", 0); err == nil {
		t.Error("ValidatePositive(0) = nil, want error")
	}
	if err := ValidatePositive("cellSize", 100); err != nil {
		t.Errorf("ValidatePositive(100) = %v, want nil", err)
	}
}

func TestValidateOneOf(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"screen", "screen", false},
		{"positions", "positions", false},
		{"empty", "", true},
		{"unknown", "pixels", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOneOf("itemSizesReference", tt.input, "screen", "positions")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOneOf(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "graph.json", false},
		{"valid nested", "graphs/square.json", false},
		{"absolute", "/etc/stagegraph.toml", false},
		{"parent", "../stagegraph.toml", false},

		{"empty", "", true},
		{"null byte", "graph\x00.json", true},
		{"control char", "graph\x01.json", true},
		{"too long", strings.Repeat("a", 5000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
