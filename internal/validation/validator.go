// Package validation decides whether an email address is acceptable for a
// new account: normalize, check syntax, then reject disposable domains.
// Deliverability (MX lookups) is left to the account backend.
package validation

import (
	"fmt"
	"strings"

	"github.com/dgellow/mailgate/internal/emailutil"
	"github.com/dgellow/mailgate/internal/log"
)

// Option adjusts a single validation call.
type Option func(*options)

type options struct {
	checkDisposable bool
}

// WithDisposableCheck enables or disables the disposable-domain filter.
// It is enabled by default.
func WithDisposableCheck(enabled bool) Option {
	return func(o *options) {
		o.checkDisposable = enabled
	}
}

// Validator validates addresses against a fixed disposable-domain set.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	disposable *emailutil.DomainSet
	normalize  func(string) string
}

// New creates a validator. A nil set means the built-in disposable list.
func New(disposable *emailutil.DomainSet) *Validator {
	if disposable == nil {
		disposable = emailutil.NewDomainSet()
	}
	return &Validator{
		disposable: disposable,
		normalize:  emailutil.Normalize,
	}
}

var defaultValidator = New(nil)

// Validate validates raw with the built-in disposable list.
func Validate(raw string, opts ...Option) Result {
	return defaultValidator.Validate(raw, opts...)
}

// ValidateOrError validates raw with the built-in disposable list.
func ValidateOrError(raw string, opts ...Option) (string, error) {
	return defaultValidator.ValidateOrError(raw, opts...)
}

// Validate runs the full check and never panics.
func (v *Validator) Validate(raw string, opts ...Option) Result {
	o := options{checkDisposable: true}
	for _, opt := range opts {
		opt(&o)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return invalid(ReasonMalformed)
	}

	normalized, err := v.safeNormalize(raw)
	if err != nil {
		log.LogErrorWithFields("validation", "Error normalizing email", map[string]any{
			"error": err.Error(),
		})
		return invalid(ReasonMalformed)
	}

	if !emailutil.CheckSyntax(normalized) {
		log.LogTraceWithFields("validation", "Email failed syntax check", map[string]any{
			"email": emailutil.Redact(normalized),
		})
		return invalid(ReasonMalformed)
	}

	domain := emailutil.ExtractDomain(normalized)
	if o.checkDisposable && v.disposable.Contains(domain) {
		log.LogDebugWithFields("validation", "Rejected disposable email domain", map[string]any{
			"domain": domain,
		})
		return invalid(ReasonDisposable)
	}

	return valid(normalized)
}

// ValidateOrError returns the normalized address, or an *Error carrying
// the message Validate would have reported.
func (v *Validator) ValidateOrError(raw string, opts ...Option) (string, error) {
	result := v.Validate(raw, opts...)
	if err := result.Err(); err != nil {
		return "", err
	}
	return result.NormalizedEmail, nil
}

// IsDisposable reports whether domain is in this validator's set.
func (v *Validator) IsDisposable(domain string) bool {
	return v.disposable.Contains(domain)
}

func (v *Validator) safeNormalize(raw string) (normalized string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("normalize panicked: %v", r)
		}
	}()
	return v.normalize(raw), nil
}
