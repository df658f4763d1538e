package emailutil

// Redact masks an email address for logging.
// "john.doe@example.com" becomes "jo***@example.com"; local parts of two
// characters or fewer are masked entirely.
func Redact(email string) string {
	local, domain, ok := SplitAddress(email)
	if !ok {
		return "***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
