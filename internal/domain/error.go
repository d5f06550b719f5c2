package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
	CodeFailedPrecond    ErrorCode = "FAILED_PRECONDITION"
	CodeInternal         ErrorCode = "INTERNAL"
	CodeCanceled         ErrorCode = "CANCELED"
	CodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
)

var (
	ErrInstanceTypeNotFound = errors.New("instance type not found")
	ErrStoreClosed          = errors.New("catalog store is closed")
	ErrMalformedDocument    = errors.New("malformed pricing document")
	ErrMissingVersion       = errors.New("pricing document has no version")
	ErrMissingProducts      = errors.New("pricing document has no products")
	ErrUnknownSourceKind    = errors.New("unknown data source kind")
)

// Error carries a code and the operation that failed. Refresh stages use the
// Op to tell source, parse and store failures apart in logs.
type Error struct {
	Code      ErrorCode
	Op        string
	Message   string
	Cause     error
	Retryable bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

// Wrap attaches a code and op to err. An existing *Error keeps its code.
func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:      existing.Code,
			Op:        op,
			Message:   existing.Message,
			Cause:     existing.Cause,
			Retryable: existing.Retryable,
		}
	}
	return E(code, op, "", err)
}

// Retryable marks err as retryable by the refresh scheduler.
func Retryable(code ErrorCode, op string, err error) *Error {
	wrapped := Wrap(code, op, err)
	if wrapped != nil {
		wrapped.Retryable = true
	}
	return wrapped
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrInstanceTypeNotFound):
		return CodeNotFound, true
	case errors.Is(err, ErrMalformedDocument), errors.Is(err, ErrMissingVersion), errors.Is(err, ErrMissingProducts):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrUnknownSourceKind):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrStoreClosed):
		return CodeFailedPrecond, true
	default:
		return "", false
	}
}

// OpFrom returns the failing operation recorded on err, if any.
func OpFrom(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Op
	}
	return ""
}
