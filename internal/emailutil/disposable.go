package emailutil

import "strings"

// disposableDomains are throwaway-mailbox providers rejected at signup.
// Matching is exact: subdomains of these are not covered.
var disposableDomains = []string{
	"mailinator.com", "temp-mail.org", "guerrillamail.com", "tempmail.com",
	"10minutemail.com", "throwaway.email", "maildrop.cc", "trashmail.com",
	"yopmail.com", "fakeinbox.com", "getnada.com", "anonbox.net",
	"dispostable.com", "emailondeck.com", "spam4.me", "temp-mail.io",
	"mohmal.com", "mailnesia.com", "sharklasers.com", "guerrillamailblock.com",
	"getairmail.com", "mytemp.email", "tmpmail.net", "fakemail.net",
	"throwawaymail.com", "mintemail.com", "tempinbox.com", "jetable.org",
}

// DomainSet is an immutable set of lowercase domains.
type DomainSet struct {
	domains map[string]struct{}
}

var builtinDisposable = NewDomainSet()

// NewDomainSet returns the built-in disposable domains plus extra.
// Extra entries are lowercased and stripped of surrounding whitespace and
// trailing dots; empty entries are ignored.
func NewDomainSet(extra ...string) *DomainSet {
	set := &DomainSet{domains: make(map[string]struct{}, len(disposableDomains)+len(extra))}
	for _, d := range disposableDomains {
		set.domains[d] = struct{}{}
	}
	for _, d := range extra {
		d = strings.TrimRight(strings.ToLower(strings.TrimSpace(d)), ".")
		if d == "" {
			continue
		}
		set.domains[d] = struct{}{}
	}
	return set
}

// Contains reports whether domain is in the set, ignoring case.
func (s *DomainSet) Contains(domain string) bool {
	_, ok := s.domains[strings.ToLower(domain)]
	return ok
}

// Len returns the number of domains in the set.
func (s *DomainSet) Len() int {
	return len(s.domains)
}

// IsDisposableDomain reports whether domain is a known disposable provider.
func IsDisposableDomain(domain string) bool {
	return builtinDisposable.Contains(domain)
}

// DisposableDomains returns a copy of the built-in list.
func DisposableDomains() []string {
	out := make([]string, len(disposableDomains))
	copy(out, disposableDomains)
	return out
}
