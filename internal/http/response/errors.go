package response

import (
	"errors"
	"net/http"
)

// Error is the single error currency of the HTTP layer. Handlers and
// middleware return it (or any error) and the terminal renderer in
// respond.go turns it into the wire shape. Operational errors are
// expected, client-caused failures whose message is safe to surface;
// anything else is rendered as a generic 500 in production.
type Error struct {
	Status      int
	Code        string
	Message     string
	Err         error // wrapped cause, logged but never serialized
	Operational bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Error codes carried alongside the HTTP status.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
	CodeInvalidToken  = "INVALID_TOKEN"
)

func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidInput, Message: message, Operational: true}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message, Operational: true}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: message, Operational: true}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message, Operational: true}
}

func RateLimited(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimit, Message: message, Operational: true}
}

// InvalidToken is a 400 used by the password-reset consumption path.
func InvalidToken(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidToken, Message: message, Operational: true}
}

// ServerError is an expected 500 with a message safe to surface, e.g.
// a failed outbound-mail delivery.
func ServerError(message string, err error) *Error {
	return &Error{
		Status:      http.StatusInternalServerError,
		Code:        CodeInternalError,
		Message:     message,
		Err:         err,
		Operational: true,
	}
}

// Internal wraps an unexpected failure. Not operational: production
// clients only ever see the generic message.
func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "something went wrong",
		Err:     err,
	}
}

// AsError normalizes any error into *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
