package mpesa

import (
	"regexp"
	"strings"
)

// CountryCode is the Kenyan calling code used as the canonical prefix.
const CountryCode = "254"

// MinPhoneLength is the shortest raw input worth sending to the provider.
const MinPhoneLength = 10

var phonePrefix = regexp.MustCompile(`^(?:254|\+254|0)`)

// NormalizePhone rewrites a leading 0, +254 or 254 to 254. Nothing else is
// validated; malformed numbers are left for the provider to reject.
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	return phonePrefix.ReplaceAllString(s, CountryCode)
}

// MajorUnits converts minor units (cents) to whole shillings, rounding half up.
// The conversion is lossy: 149 -> 1, 150 -> 2.
func MajorUnits(minor int64) int64 {
	if minor < 0 {
		return -((-minor + 50) / 100)
	}
	return (minor + 50) / 100
}
