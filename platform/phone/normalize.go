// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "ES"

// maxLocalDigits is the longest digit run treated as a national number.
const maxLocalDigits = 9

// Clean keeps digits and a single plus sign that precedes every digit.
// "(+34) 612-345 678" becomes "+34612345678".
func Clean(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	seenDigit := false
	seenPlus := false
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			b.WriteRune(r)
		case r == '+' && !seenDigit && !seenPlus:
			seenPlus = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Internationalize turns free-form phone text into a best-effort international
// number. Without a leading plus, short numbers (up to nine digits) get
// countryCode and longer ones are assumed to already carry a country prefix.
// Returns "" when the text contains no digits.
func Internationalize(input, countryCode string) string {
	cleaned := Clean(input)
	digits := strings.TrimPrefix(cleaned, "+")
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	if len(digits) <= maxLocalDigits {
		return countryCode + digits
	}
	return "+" + digits
}

// NormalizeE164ForRegion formats a phone number to E.164, reading national
// numbers in region. If parsing fails, it returns the trimmed input.
func NormalizeE164ForRegion(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if region == "" {
		region = defaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
