package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestValidateSequence(t *testing.T) {
	tests := []struct {
		name     string
		sequence string
		maxLen   int
		wantErr  error
	}{
		{"simple", "GDAKE", 10, nil},
		{"empty", "", 10, nil},
		{"exact limit", "AAAAA", 5, nil},
		{"unmapped characters allowed", "xyz 123", 10, nil},
		{"limit disabled", strings.Repeat("A", 10000), 0, nil},
		{"multibyte counted as one", "ÄÖÜ", 3, nil},

		{"too long", "AAAAAA", 5, ErrSequenceTooLong},
		{"invalid utf8", "A\xffB", 10, ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSequence(tt.sequence, tt.maxLen)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSequence(%q) error = %v, want nil", tt.sequence, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSequence(%q) error = %v, want %v", tt.sequence, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLiterals(t *testing.T) {
	literals := []string{"NeuOrNeg,4", "PosOrNeu,9", "NeuOrNeg,3"}

	if err := ValidateLiterals(literals, 3); err != nil {
		t.Errorf("ValidateLiterals at limit error = %v", err)
	}
	if err := ValidateLiterals(literals, 0); err != nil {
		t.Errorf("ValidateLiterals with limit disabled error = %v", err)
	}
	if err := ValidateLiterals(literals, 2); !errors.Is(err, ErrSequenceTooLong) {
		t.Errorf("ValidateLiterals over limit error = %v, want ErrSequenceTooLong", err)
	}
}

func TestValidateFinite(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{"finite", []float64{3, 5, 0.5}, false},
		{"none", nil, false},
		{"nan", []float64{3, math.NaN(), 1}, true},
		{"positive infinity", []float64{math.Inf(1)}, true},
		{"negative infinity", []float64{0, math.Inf(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFinite("ph_range", tt.values...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFinite(%v) error = %v, wantErr %v", tt.values, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "ph_range") {
				t.Errorf("error should name the field: %v", err)
			}
		})
	}
}
