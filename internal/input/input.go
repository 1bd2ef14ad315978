package input

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxInputLength = 200
	DefaultUserID  = "NALOTest"
)

var (
	msisdnPattern = regexp.MustCompile(`^233[2-9]\d{8}$`)
	nonDigits     = regexp.MustCompile(`\D`)
	dialString    = regexp.MustCompile(`^\*[0-9*]*#$`)
	stripped      = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")
)

// Sanitize trims, removes markup-like characters and caps the length in runes.
func Sanitize(s string) string {
	s = stripped.Replace(strings.TrimSpace(s))
	if utf8.RuneCountInString(s) > MaxInputLength {
		s = string([]rune(s)[:MaxInputLength])
	}
	return s
}

// NormalizeMSISDN keeps only the digits of a subscriber identifier.
func NormalizeMSISDN(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// ValidMSISDN reports whether the digits form a Ghanaian mobile number in
// international format.
func ValidMSISDN(digits string) bool {
	return msisdnPattern.MatchString(digits)
}

// UserID falls back to the gateway default when the request carries none.
func UserID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultUserID
	}
	return s
}

// IsDialString reports whether input is the USSD code that opens a session,
// such as "*920*55#".
func IsDialString(s string) bool {
	return len(s) > 1 && dialString.MatchString(s)
}
