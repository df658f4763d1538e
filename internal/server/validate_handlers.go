package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgellow/mailgate/internal/emailutil"
	jsonwriter "github.com/dgellow/mailgate/internal/json"
	"github.com/dgellow/mailgate/internal/log"
	"github.com/dgellow/mailgate/internal/servicecontext"
	"github.com/dgellow/mailgate/internal/validation"
)

// ValidateRequest is the body of POST /api/email/validate
type ValidateRequest struct {
	Email           string `json:"email"`
	CheckDisposable *bool  `json:"checkDisposable,omitempty"`
}

// ValidateBatchRequest is the body of POST /api/email/validate-batch
type ValidateBatchRequest struct {
	Emails          []string `json:"emails"`
	CheckDisposable *bool    `json:"checkDisposable,omitempty"`
}

// ValidateBatchResponse holds one result per input address, in order
type ValidateBatchResponse struct {
	Results []validation.Result `json:"results"`
	Valid   int                 `json:"valid"`
	Invalid int                 `json:"invalid"`
}

// ValidationHandlers serves the email validation API. An address that fails
// validation is still a 200: the verdict is in the body.
type ValidationHandlers struct {
	validator       *validation.Validator
	checkDisposable bool
	maxBatchSize    int
}

// NewValidationHandlers creates the handlers. checkDisposable is the default
// used when a request does not say.
func NewValidationHandlers(validator *validation.Validator, checkDisposable bool, maxBatchSize int) *ValidationHandlers {
	return &ValidationHandlers{
		validator:       validator,
		checkDisposable: checkDisposable,
		maxBatchSize:    maxBatchSize,
	}
}

func (h *ValidationHandlers) options(override *bool) validation.Option {
	enabled := h.checkDisposable
	if override != nil {
		enabled = *override
	}
	return validation.WithDisposableCheck(enabled)
}

// ValidateHandler handles POST /api/email/validate
func (h *ValidationHandlers) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonwriter.WriteMethodNotAllowed(w, http.MethodPost, http.MethodOptions)
		return
	}

	var req ValidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result := h.validator.Validate(req.Email, h.options(req.CheckDisposable))

	fields := map[string]any{
		"valid":      result.Valid,
		"request_id": servicecontext.GetRequestID(r.Context()),
	}
	if result.Valid {
		fields["email"] = emailutil.Redact(result.NormalizedEmail)
	} else {
		fields["reason"] = result.Reason
	}
	log.LogDebugWithFields("validation", "Validated email", fields)

	_ = jsonwriter.Write(w, result)
}

// ValidateBatchHandler handles POST /api/email/validate-batch
func (h *ValidationHandlers) ValidateBatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonwriter.WriteMethodNotAllowed(w, http.MethodPost, http.MethodOptions)
		return
	}

	var req ValidateBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Emails) == 0 {
		jsonwriter.WriteBadRequest(w, "emails must contain at least one address")
		return
	}
	if len(req.Emails) > h.maxBatchSize {
		jsonwriter.WriteBadRequest(w, fmt.Sprintf("too many emails: %d (max %d)", len(req.Emails), h.maxBatchSize))
		return
	}

	opt := h.options(req.CheckDisposable)
	resp := ValidateBatchResponse{Results: make([]validation.Result, len(req.Emails))}
	for i, email := range req.Emails {
		resp.Results[i] = h.validator.Validate(email, opt)
		if resp.Results[i].Valid {
			resp.Valid++
		} else {
			resp.Invalid++
		}
	}

	service, _ := servicecontext.GetServiceName(r.Context())
	log.LogInfoWithFields("validation", "Validated email batch", map[string]any{
		"count":      len(req.Emails),
		"invalid":    resp.Invalid,
		"service":    service,
		"request_id": servicecontext.GetRequestID(r.Context()),
	})

	_ = jsonwriter.Write(w, resp)
}

// decodeBody decodes a JSON request body into v, writing a 400 or 413 and
// returning false when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			jsonwriter.WriteRequestTooLarge(w, "Request body too large")
			return false
		}
		jsonwriter.WriteBadRequest(w, "Invalid JSON request body")
		return false
	}
	return true
}
