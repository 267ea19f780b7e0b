package utils

import (
	"regexp"
	"strings"
)

var (
	registrationEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`)
	looseEmailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// IsRegistrationEmail applies the strict format accepted at sign up.
func IsRegistrationEmail(email string) bool {
	return registrationEmailPattern.MatchString(email)
}

// IsEmail applies the looser format accepted for email changes.
func IsEmail(email string) bool {
	return looseEmailPattern.MatchString(email)
}

// MaskEmail keeps the first keep characters of the local part and the
// domain, e.g. MaskEmail("alice@x.com", 3) == "ali****@x.com".
func MaskEmail(email string, keep int) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "****"
	}
	local := email[:at]
	if keep > len(local) {
		keep = len(local)
	}
	return local[:keep] + "****" + email[at:]
}
