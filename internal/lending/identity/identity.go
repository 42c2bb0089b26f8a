// Package identity holds format checks for Indian identity numbers.
package identity

import (
	"regexp"
	"strings"
)

var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// NormalizePAN trims and upper-cases a PAN.
func NormalizePAN(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ValidatePAN reports whether value is five letters, four digits and a letter,
// ignoring case and surrounding space.
func ValidatePAN(value string) bool {
	return panPattern.MatchString(NormalizePAN(value))
}

// ValidateAadhaar reports whether value is exactly twelve ASCII digits after trimming.
func ValidateAadhaar(value string) bool {
	v := strings.TrimSpace(value)
	if len(v) != 12 {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

// MaskAadhaar keeps only the last four digits.
func MaskAadhaar(value string) string {
	return maskTail(value)
}

// MaskPAN keeps only the last four characters.
func MaskPAN(value string) string {
	return maskTail(value)
}

func maskTail(value string) string {
	v := strings.TrimSpace(value)
	if len(v) <= 4 {
		return strings.Repeat("X", len(v))
	}
	return strings.Repeat("X", len(v)-4) + v[len(v)-4:]
}
