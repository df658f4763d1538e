package emailutil

import (
	"regexp"
	"strings"
)

const (
	maxLocalLength  = 64  // RFC 5321 4.5.3.1.1
	maxDomainLength = 255 // RFC 5321 4.5.3.1.2
	maxLabelLength  = 63
)

// addrPattern is a practical subset of RFC 5322 addr-spec: dot-atom local
// part characters and hostname labels for the domain.
var addrPattern = regexp.MustCompile(
	"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+" +
		`@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?` +
		`(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`,
)

// CheckSyntax reports whether email is structurally acceptable. It does not
// normalize; pass the output of Normalize.
func CheckSyntax(email string) bool {
	if strings.Count(email, "@") != 1 {
		return false
	}
	if !addrPattern.MatchString(email) {
		return false
	}

	local, domain, _ := SplitAddress(email)
	if len(local) == 0 || len(local) > maxLocalLength {
		return false
	}
	if len(domain) == 0 || len(domain) > maxDomainLength {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}

	for _, label := range strings.Split(domain, ".") {
		if len(label) == 0 || len(label) > maxLabelLength {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}

	return true
}
