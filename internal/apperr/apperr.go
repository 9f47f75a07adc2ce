// Package apperr defines the application error taxonomy shared by services and
// HTTP handlers. Services return *AppError values (usually the sentinels below);
// handlers translate the Code into an HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeTooManyRequests    Code = "TOO_MANY_REQUESTS"
	CodeInternal           Code = "INTERNAL"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches two AppErrors by code and message so that wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) *AppError    { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) *AppError      { return New(CodeNotFound, msg) }
func AlreadyExists(msg string) *AppError { return New(CodeAlreadyExists, msg) }
func Unauthorized(msg string) *AppError  { return New(CodeUnauthenticated, msg) }
func Forbidden(msg string) *AppError     { return New(CodePermissionDenied, msg) }
func FailedPrecondition(msg string) *AppError {
	return New(CodeFailedPrecondition, msg)
}

// Internal wraps an unexpected backend failure. The cause message is kept so
// operators can see what went wrong.
func Internal(cause error) *AppError {
	return Wrap(CodeInternal, "internal error", cause)
}

// CodeOf returns the Code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// HTTPStatus maps err to the response status used by the REST layer.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeFailedPrecondition:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err. Internal errors keep the
// underlying message.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Code == CodeInternal && ae.Cause != nil {
			return ae.Cause.Error()
		}
		return ae.Message
	}
	return err.Error()
}
