package entity

import (
	"strings"
	"unicode"
)

// MinContactDigits is the shortest digit string accepted as a contact id.
const MinContactDigits = 10

// OnlyDigits drops every non-digit rune from raw.
func OnlyDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func IsContactID(id string) bool {
	if len(id) < MinContactDigits {
		return false
	}
	for _, r := range id {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ContactIDFromAddress turns a gateway address such as
// "573001112233@s.whatsapp.net" or "573001112233:12@s.whatsapp.net" into its
// digit-only user part.
func ContactIDFromAddress(address string) string {
	user := address
	if at := strings.IndexByte(user, '@'); at >= 0 {
		user = user[:at]
	}
	if colon := strings.IndexByte(user, ':'); colon >= 0 {
		user = user[:colon]
	}
	return OnlyDigits(user)
}

// InternationalNumber prefixes countryCode to a local phone number. Numbers
// longer than a national number that already start with the code are kept.
func InternationalNumber(phone, countryCode string) string {
	digits := OnlyDigits(phone)
	if digits == "" {
		return ""
	}
	if countryCode == "" {
		return digits
	}
	if len(digits) > MinContactDigits && strings.HasPrefix(digits, countryCode) {
		return digits
	}
	return countryCode + digits
}

// StripCountryCode removes a leading countryCode from an international number.
func StripCountryCode(id, countryCode string) string {
	digits := OnlyDigits(id)
	if countryCode != "" && len(digits) > MinContactDigits && strings.HasPrefix(digits, countryCode) {
		return digits[len(countryCode):]
	}
	return digits
}
