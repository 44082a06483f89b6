// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for frameq.

package api

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeAllocation
	ErrCodeSubmission
	ErrCodeInvalidState
	ErrCodeTimeout
	ErrCodeEndOfStream
	ErrCodeAlreadyRunning
	ErrCodeNotRunning
	ErrCodeNotSupported
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid argument"
	case ErrCodeAllocation:
		return "allocation"
	case ErrCodeSubmission:
		return "submission"
	case ErrCodeInvalidState:
		return "invalid state"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeEndOfStream:
		return "end of stream"
	case ErrCodeAlreadyRunning:
		return "already running"
	case ErrCodeNotRunning:
		return "not running"
	case ErrCodeNotSupported:
		return "not supported"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrInvalidArgument  = &Error{Code: ErrCodeInvalidArgument, Message: "invalid argument"}
	ErrAllocation       = &Error{Code: ErrCodeAllocation, Message: "buffer allocation failed"}
	ErrSubmission       = &Error{Code: ErrCodeSubmission, Message: "producer rejected submission"}
	ErrInvalidState     = &Error{Code: ErrCodeInvalidState, Message: "invalid slot state"}
	ErrOperationTimeout = &Error{Code: ErrCodeTimeout, Message: "operation timeout"}
	ErrEndOfStream      = &Error{Code: ErrCodeEndOfStream, Message: "end of stream"}
	ErrAlreadyRunning   = &Error{Code: ErrCodeAlreadyRunning, Message: "capture already running"}
	ErrNotRunning       = &Error{Code: ErrCodeNotRunning, Message: "capture not running"}
	ErrNotSupported     = &Error{Code: ErrCodeNotSupported, Message: "operation not supported"}
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Context) > 0 {
		msg = fmt.Sprintf("%s (context: %+v)", msg, e.Context)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Wrap records cause as the underlying error.
func (e *Error) Wrap(cause error) *Error {
	e.Err = cause
	return e
}

// CodeOf extracts the ErrorCode from err, or ErrCodeInternal when err is not an *Error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
