package domain

import (
	"regexp"
	"strings"

	dErrors "spamstopper/pkg/domain-errors"
)

// PhoneNumber is an E.164 phone number string, e.g. "+15551234567".
type PhoneNumber string

// e164Pattern matches a plus sign followed by 10-15 digits. Carriers report
// forwarding numbers in this shape; anything else is treated as unusable.
var e164Pattern = regexp.MustCompile(`^\+\d{10,15}$`)

// ParsePhoneNumber validates a string as an E.164 phone number.
// Use at trust boundaries. Surrounding whitespace is tolerated.
func ParsePhoneNumber(s string) (PhoneNumber, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "phone number cannot be empty")
	}
	if !e164Pattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "phone number must be in E.164 format (e.g. +15551234567)")
	}
	return PhoneNumber(s), nil
}

// IsValidPhoneNumber reports whether s is a syntactically valid E.164 number.
func IsValidPhoneNumber(s string) bool {
	return e164Pattern.MatchString(strings.TrimSpace(s))
}

func (p PhoneNumber) String() string { return string(p) }

func (p PhoneNumber) IsZero() bool { return p == "" }
