package domain

import (
	"errors"
	"fmt"
)

// Error codes carried by Error.Code. Handlers map these onto HTTP status
// codes; services never speak HTTP directly.
const (
	EINVALID      = "invalid"      // bad input, validation failure
	EUNAUTHORIZED = "unauthorized" // missing or invalid credentials
	EFORBIDDEN    = "forbidden"    // authenticated but not allowed
	ENOTFOUND     = "not_found"    // no such resource
	ECONFLICT     = "conflict"     // duplicate or conflicting state
	ERATELIMIT    = "rate_limit"   // too many requests
	EPAYMENT      = "payment"      // daily generation allowance exhausted
	EINTERNAL     = "internal"     // unexpected failure
)

// genericInternalMessage is what clients see for EINTERNAL and unclassified
// errors. The real cause stays in logs.
const genericInternalMessage = "Something went wrong. Please try again later."

// Error is the application error type. Code classifies the failure, Op names
// the operation that produced it (e.g. "EntitlementService.TryConsume"), and
// Message is safe to show to a client.
type Error struct {
	Code    string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error with a formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code, op, and client-safe message to an underlying error.
func Wrap(err error, code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// ErrorCode extracts the code from an error chain. Errors that are not an
// *Error classify as EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage extracts the client-safe message from an error chain.
// Internal and unclassified errors get the generic message so infrastructure
// details never leak into responses.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return genericInternalMessage
}

// ErrorOp extracts the operation name from an error chain, if present.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// =============================================================================
// Constructors
// =============================================================================

// NotFound builds an ENOTFOUND error for a resource looked up by ID.
func NotFound(op, resource, id string) *Error {
	return Errorf(ENOTFOUND, op, "%s with ID %q not found", resource, id)
}

// Invalid builds an EINVALID error.
func Invalid(op, message string) *Error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Unauthorized builds an EUNAUTHORIZED error.
func Unauthorized(op, message string) *Error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

// Forbidden builds an EFORBIDDEN error.
func Forbidden(op, message string) *Error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

// Conflict builds an ECONFLICT error.
func Conflict(op, message string) *Error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Internal wraps an unexpected failure. The message is what the client may
// see; err carries the cause for logging.
func Internal(err error, op, message string) *Error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// RateLimit builds an ERATELIMIT error.
func RateLimit(op string) *Error {
	return &Error{
		Code:    ERATELIMIT,
		Op:      op,
		Message: "Too many requests. Please try again later.",
	}
}

// QuotaExceeded is the terminal "denied" error returned when a caller has
// used up today's generation allowance. Surfaced to clients as 402 with an
// upgrade hint, never as an internal failure.
func QuotaExceeded(op string, tier Tier, used, allowance int) *Error {
	return &Error{
		Code: EPAYMENT,
		Op:   op,
		Message: fmt.Sprintf("Daily limit reached (%d of %d generations used). Upgrade for a higher limit.",
			used, allowance),
		Err: fmt.Errorf("tier %s: used %d >= allowance %d", tier, used, allowance),
	}
}

// =============================================================================
// Validation Errors
// =============================================================================

// ValidationError collects per-field validation failures so a client can
// render them next to the offending inputs.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// NewValidationError starts a ValidationError with one field failure.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op:     op,
		Fields: map[string]string{field: message},
	}
}

// AddFieldError records another field failure on err, or starts a fresh
// ValidationError when err is not one.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}
