package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDuplicate is returned by stores when a unique key already exists.
var ErrDuplicate = errors.New("duplicate key")

// ErrorKind classifies an AppError for clients and logs.
type ErrorKind string

const (
	KindConfiguration       ErrorKind = "configuration"
	KindValidation          ErrorKind = "validation"
	KindBadRequest          ErrorKind = "bad_request"
	KindAuth                ErrorKind = "auth"
	KindForbidden           ErrorKind = "forbidden"
	KindNotFound            ErrorKind = "not_found"
	KindAuthenticity        ErrorKind = "authenticity"
	KindUpstreamRejection   ErrorKind = "upstream_rejection"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindInsufficientCredits ErrorKind = "insufficient_credits"
	KindStore               ErrorKind = "store"
	KindRateLimited         ErrorKind = "rate_limited"
	KindInternal            ErrorKind = "internal"
)

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    int                    `json:"code"`
	Kind    ErrorKind              `json:"kind"`
	Message string                 `json:"error"`
	Details map[string]interface{} `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the client may safely repeat the request as-is.
func (e *AppError) Retryable() bool {
	return e.Kind == KindUpstreamUnavailable
}

// Public reports whether Message may be shown to the client verbatim.
func (e *AppError) Public() bool {
	return e.Kind != KindConfiguration && e.Kind != KindInternal
}

// Common error constructors.

func ErrNotFound(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Kind: KindAuth, Message: msg}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: http.StatusForbidden, Kind: KindForbidden, Message: msg}
}

func ErrBadRequest(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: msg}
}

// ErrValidation reports a field-specific input problem.
func ErrValidation(field, msg string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: msg,
		Details: map[string]interface{}{"field": field},
	}
}

func ErrInternal(msg string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: msg, Err: err}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: http.StatusTooManyRequests, Kind: KindRateLimited, Message: msg}
}

// ErrConfiguration is a server misconfiguration. The client only sees a generic message.
func ErrConfiguration(msg string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Kind: KindConfiguration, Message: msg}
}

// ErrAuthenticity is a signature mismatch on a payment confirmation. Not retried.
func ErrAuthenticity(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindAuthenticity, Message: msg}
}

// ErrUpstreamRejection means the gateway did not capture the payment; the client restarts the purchase.
func ErrUpstreamRejection(msg string) *AppError {
	return &AppError{Code: http.StatusPaymentRequired, Kind: KindUpstreamRejection, Message: msg}
}

// ErrUpstreamUnavailable means the gateway state is unknown (timeout, transport or 5xx). Retryable.
func ErrUpstreamUnavailable(msg string, err error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindUpstreamUnavailable,
		Message: msg,
		Details: map[string]interface{}{"retryable": true},
		Err:     err,
	}
}

// ErrInsufficientCredits carries the current balance so the client can render an upgrade path.
func ErrInsufficientCredits(balance, required int) *AppError {
	return &AppError{
		Code:    http.StatusPaymentRequired,
		Kind:    KindInsufficientCredits,
		Message: "insufficient credits",
		Details: map[string]interface{}{
			"credits":      balance,
			"required":     required,
			"requiredPlan": TierStarter,
		},
	}
}

// ErrStore is a durable-write failure after money already moved at the gateway.
// It needs manual reconciliation, not a client retry.
func ErrStore(msg string, paymentRef string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindStore,
		Message: msg,
		Details: map[string]interface{}{"reconcile": true, "paymentId": paymentRef},
		Err:     err,
	}
}

// AsAppError attempts to extract an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}
