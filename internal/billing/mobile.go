package billing

import "strings"

const mobileLength = 10

// NormalizeMobile reduces raw input to the digits of a plausible mobile
// number: non-digits are stripped, a number whose first digit is outside
// 6-9 is rejected to empty, and anything past ten digits is dropped.
func NormalizeMobile(input string) string {
	var b strings.Builder

	for _, r := range input {
		if r < '0' || r > '9' {
			continue
		}

		if b.Len() == 0 && (r < '6' || r > '9') {
			return ""
		}

		if b.Len() == mobileLength {
			break
		}

		b.WriteRune(r)
	}

	return b.String()
}

// ValidMobile reports whether s is a complete mobile number: exactly ten
// digits beginning with 6-9.
func ValidMobile(s string) bool {
	if len(s) != mobileLength {
		return false
	}

	if s[0] < '6' || s[0] > '9' {
		return false
	}

	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
