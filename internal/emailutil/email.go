package emailutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes an email address before any validity checks.
// Whitespace is trimmed, the string is NFKC-normalized, and the domain
// (everything after the last '@') is lowercased with trailing dots removed.
// The local part keeps its case. Input without '@' is lowercased whole and
// left for the syntax check to reject.
func Normalize(email string) string {
	email = norm.NFKC.String(strings.TrimSpace(email))

	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return strings.ToLower(email)
	}

	local := email[:at]
	domain := strings.TrimRight(strings.ToLower(email[at+1:]), ".")
	return local + "@" + domain
}

// SplitAddress splits an address on its last '@'.
func SplitAddress(email string) (local, domain string, ok bool) {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email, "", false
	}
	return email[:at], email[at+1:], true
}

// ExtractDomain extracts domain from email address
func ExtractDomain(email string) string {
	_, domain, _ := SplitAddress(email)
	return domain
}
