package auth

import "regexp"

// emailPattern is a basic local@domain.tld shape check, not a full
// RFC 5322 parse. The mail delivery step is the real validator.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether value looks like an email address.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}
