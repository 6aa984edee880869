package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateFinite rejects NaN and infinite values for the named field.
func ValidateFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidSetting, "%s must be a finite number, got %v", field, v)
	}
	return nil
}

// ValidateNonNegative rejects negative or non-finite values for the named field.
func ValidateNonNegative(field string, v float64) error {
	if err := ValidateFinite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return New(ErrCodeInvalidSetting, "%s must be >= 0, got %v", field, v)
	}
	return nil
}

// ValidatePositive rejects zero, negative or non-finite values for the named field.
func ValidatePositive(field string, v float64) error {
	if err := ValidateFinite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return New(ErrCodeInvalidSetting, "%s must be > 0, got %v", field, v)
	}
	return nil
}

// ValidateOneOf rejects values that are not in allowed.
func ValidateOneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return New(ErrCodeInvalidSetting, "%s must be one of %s, got %q", field, strings.Join(allowed, ", "), value)
}

// ValidatePath validates a local file path given on the command line or in
// a config file. Absolute and parent-relative paths are allowed.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 bytes
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d bytes)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
