package validation

import (
	"encoding/json"
	"errors"
)

// User-facing messages. Malformed input of any kind shares one message so
// callers cannot tell which check failed.
const (
	MessageInvalid    = "Please enter a valid email address that can receive mail."
	MessageDisposable = "Please use a permanent email address, not a disposable one."
)

// Reason classifies why an address was rejected.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonMalformed  Reason = "malformed"
	ReasonDisposable Reason = "disposable"
)

var (
	ErrMalformed  = errors.New("malformed email address")
	ErrDisposable = errors.New("disposable email domain")
)

// Result is the outcome of validating one address. Exactly one of
// NormalizedEmail and Error is set, depending on Valid.
type Result struct {
	Valid           bool
	NormalizedEmail string
	Error           string
	Reason          Reason
}

func valid(normalized string) Result {
	return Result{Valid: true, NormalizedEmail: normalized}
}

func invalid(reason Reason) Result {
	msg := MessageInvalid
	if reason == ReasonDisposable {
		msg = MessageDisposable
	}
	return Result{Error: msg, Reason: reason}
}

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Reason: r.Reason, Message: r.Error}
}

type resultJSON struct {
	IsValid         bool    `json:"isValid"`
	NormalizedEmail *string `json:"normalizedEmail"`
	Error           *string `json:"error"`
	Reason          string  `json:"reason,omitempty"`
}

// MarshalJSON writes the absent half of the result as null.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{IsValid: r.Valid, Reason: string(r.Reason)}
	if r.Valid {
		out.NormalizedEmail = &r.NormalizedEmail
	} else {
		out.Error = &r.Error
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the format written by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Result{Valid: in.IsValid, Reason: Reason(in.Reason)}
	if in.NormalizedEmail != nil {
		r.NormalizedEmail = *in.NormalizedEmail
	}
	if in.Error != nil {
		r.Error = *in.Error
	}
	return nil
}

// Error is returned by ValidateOrError. Its message is the same
// user-facing text Validate puts in Result.Error.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "invalid email address"
	}
	return e.Message
}

// Is matches ErrMalformed and ErrDisposable by reason.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return e.Reason == ReasonMalformed
	case ErrDisposable:
		return e.Reason == ReasonDisposable
	}
	return false
}
