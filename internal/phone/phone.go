// Package phone normalizes user supplied phone numbers to E.164.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "US"

const minDigits = 10

// Normalize returns value in E.164 form, or "" when it is not a plausible
// phone number.
func Normalize(value string) string {
	value = strings.TrimSpace(value)
	if !looksLikePhone(value) {
		return ""
	}

	num, err := phonenumbers.Parse(value, DefaultRegion)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// IsPhoneNumber reports whether value should be treated as a phone number
// rather than an email address when used as a login identifier.
func IsPhoneNumber(value string) bool {
	return Normalize(value) != ""
}

func looksLikePhone(value string) bool {
	if value == "" {
		return false
	}
	digits := 0
	for i, r := range value {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ', r == '-', r == '.', r == '(', r == ')':
		default:
			return false
		}
	}
	return digits >= minDigits
}
