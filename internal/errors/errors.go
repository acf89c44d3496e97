package apierrors

import (
	"errors"
	"net/http"
)

// Error kinds. Every APIError carries exactly one of them so callers can match with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrAuthorization      = errors.New("authorization error")
	ErrAuthentication     = errors.New("authentication error")
	ErrChallengeMissing   = errors.New("challenge missing")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrChallengeExhausted = errors.New("challenge exhausted")
	ErrChallengeMismatch  = errors.New("challenge mismatch")
	ErrStore              = errors.New("store error")
	ErrDispatch           = errors.New("dispatch error")
)

// Client-facing messages.
const (
	MsgMissingIDToken   = "missing idToken"
	MsgMissingUID       = "missing uid"
	MsgMissingSession   = "missing session"
	MsgMissingEmail     = "missing email"
	MsgMissingFields    = "missing fields"
	MsgMalformedToken   = "malformed idToken"
	MsgWrongAudience    = "wrong audience"
	MsgTokenExpired     = "idToken expired"
	MsgUIDMismatch      = "uid mismatch"
	MsgInvalidToken     = "invalid idToken"
	MsgNotAdmin         = "not an admin"
	MsgNoPendingCode    = "no pending code"
	MsgCodeExpired      = "code expired"
	MsgTooManyAttempts  = "too many attempts"
	MsgInvalidCode      = "invalid code"
	MsgInternal         = "internal error"
	MsgInvalidJSON      = "Invalid JSON"
	MsgMissingHeaders   = "Missing headers"
	MsgInvalidSignature = "Invalid signature"
	MsgDatabaseWrite    = "Database write error"
	MsgNotFound         = "Not found"
	MsgTooManyRequests  = "too many requests"
	MsgInvalidBody      = "invalid request body"
	MsgPayloadTooLarge  = "Payload too large"
)

type APIError struct {
	Code    int
	Message string
	kind    error
	cause   error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() []error {
	var errs []error
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// Kind returns the sentinel kind of the error, or nil for ad hoc errors.
func (e *APIError) Kind() error {
	return e.kind
}

func NewAPIError(code int, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

func newKindError(kind error, code int, message string) *APIError {
	return &APIError{Code: code, Message: message, kind: kind}
}

func NewValidationError(message string) *APIError {
	return newKindError(ErrValidation, http.StatusBadRequest, message)
}

func NewAuthorizationError() *APIError {
	return newKindError(ErrAuthorization, http.StatusForbidden, MsgNotAdmin)
}

func NewAuthenticationError(message string) *APIError {
	return newKindError(ErrAuthentication, http.StatusUnauthorized, message)
}

func NewChallengeMissingError() *APIError {
	return newKindError(ErrChallengeMissing, http.StatusBadRequest, MsgNoPendingCode)
}

func NewChallengeExpiredError() *APIError {
	return newKindError(ErrChallengeExpired, http.StatusBadRequest, MsgCodeExpired)
}

func NewChallengeExhaustedError() *APIError {
	return newKindError(ErrChallengeExhausted, http.StatusBadRequest, MsgTooManyAttempts)
}

func NewChallengeMismatchError() *APIError {
	return newKindError(ErrChallengeMismatch, http.StatusBadRequest, MsgInvalidCode)
}

// NewStoreError wraps a backing-store failure. The cause is logged, never sent to clients.
func NewStoreError(cause error) *APIError {
	return &APIError{Code: http.StatusInternalServerError, Message: MsgInternal, kind: ErrStore, cause: cause}
}

// NewDatabaseWriteError wraps a telemetry write failure.
func NewDatabaseWriteError(cause error) *APIError {
	return &APIError{Code: http.StatusInternalServerError, Message: MsgDatabaseWrite, kind: ErrStore, cause: cause}
}

// NewDispatchError wraps a notification failure. The cause is logged, never sent to clients.
func NewDispatchError(cause error) *APIError {
	return &APIError{Code: http.StatusInternalServerError, Message: MsgInternal, kind: ErrDispatch, cause: cause}
}

// StatusAndMessage maps any error to the HTTP status and the message safe to return.
func StatusAndMessage(err error) (int, string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message
	}
	return http.StatusInternalServerError, MsgInternal
}
