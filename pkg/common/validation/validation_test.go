package validation

import (
	"errors"
	"testing"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
		{"large negative", -1000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("workerpool", "WorkerCount", tt.value)

			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !tperrors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		wantError bool
	}{
		{"positive value", 10.5, false},
		{"zero value", 0.0, false},
		{"small negative", -0.001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("config", "submit_rate", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNonNegative(%v) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	var nilFunc func() (int, error)
	var nilPtr *int

	tests := []struct {
		name      string
		value     interface{}
		wantError bool
	}{
		{"untyped nil", nil, true},
		{"typed nil func", nilFunc, true},
		{"typed nil pointer", nilPtr, true},
		{"func", func() {}, false},
		{"int", 0, false},
		{"string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotNil("workerpool", "fn", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateNotNil error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("workerpool", "Name", "jobs"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateNotEmpty("workerpool", "Name", ""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestValidationErrorDetails(t *testing.T) {
	err := ValidatePositive("workerpool", "WorkerCount", 0)

	var verr *tperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Module != "workerpool" || verr.Field != "WorkerCount" {
		t.Errorf("unexpected module/field: %s/%s", verr.Module, verr.Field)
	}
	if verr.Hint == "" {
		t.Error("expected a hint")
	}
	if !errors.Is(err, tperrors.ErrInvalidConfiguration) {
		t.Error("validation errors should wrap ErrInvalidConfiguration")
	}
}
