// Package phone converts raw phone strings into dialable WhatsApp numbers.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	// CountryPrefix is the Peru country calling code prepended to local numbers.
	CountryPrefix = "51"
	// Region is the ISO region used for strict validation.
	Region = "PE"

	prefixedLen = 11 // 51 + 9-digit mobile
	mobileLen   = 9
	areaLen     = 8 // landline with leading area digit
)

// Digits strips every non-digit character from raw.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format converts a raw phone string into a country-prefixed dialable number.
// Already-prefixed numbers pass through; local-length numbers get the prefix;
// anything else is returned digits-only and unchanged. Unrecognized lengths
// are a best-effort gap: callers that need a guarantee should run Validate.
func Format(raw string) string {
	tel := Digits(raw)
	if strings.HasPrefix(tel, CountryPrefix) && len(tel) == prefixedLen {
		return tel
	}
	if len(tel) == mobileLen || len(tel) == areaLen {
		return CountryPrefix + tel
	}
	return tel
}

// Validate checks a formatted number against the libphonenumber metadata for
// the configured region. It backs the optional strict delivery policy; the
// default policy accepts whatever Format produced.
func Validate(formatted string) error {
	if formatted == "" {
		return fmt.Errorf("empty phone number")
	}
	num, err := phonenumbers.Parse("+"+formatted, Region)
	if err != nil {
		return fmt.Errorf("parse phone %q: %w", formatted, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("phone %q is not a valid %s number", formatted, Region)
	}
	return nil
}
