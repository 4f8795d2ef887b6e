package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of client error.
type ErrorCode string

const (
	// ErrCodeAuthentication indicates the SSO portal exchange failed (missing form fields, rejected credentials).
	ErrCodeAuthentication ErrorCode = "authentication"
	// ErrCodeProtocolParse indicates an expected marker or pattern was absent from a remote response.
	ErrCodeProtocolParse ErrorCode = "protocol_parse"
	// ErrCodeTransport indicates the HTTP layer failed (network error, timeout, non-success status).
	ErrCodeTransport ErrorCode = "transport"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// Stage names the step of the remote exchange an error was raised in.
type Stage string

const (
	StageSSOEntry        Stage = "sso.entry"
	StageSSOForm         Stage = "sso.form"
	StageSSOSubmit       Stage = "sso.submit"
	StageRPCLogin        Stage = "rpc.login"
	StageRPCInitProject  Stage = "rpc.init_project"
	StageRPCLookupID     Stage = "rpc.lookup_id"
	StageRPCListChildren Stage = "rpc.list_children"
	StageCrawl           Stage = "crawl"
	StageCalendarFetch   Stage = "calendar.fetch"
	StageCalendarDecode  Stage = "calendar.decode"
	StageEventParse      Stage = "event.parse"
)

// AppError represents a structured client error with a code, the failing stage, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Stage is the remote exchange step that failed (optional)
	Stage Stage
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = string(e.Stage) + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusError reports an HTTP response whose status was not 2xx.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s from %s", e.Status, e.URL)
}

// Authentication creates a new Authentication error for the given stage.
func Authentication(stage Stage, message string) *AppError {
	return &AppError{
		Code:    ErrCodeAuthentication,
		Stage:   stage,
		Message: message,
	}
}

// ProtocolParse creates a new ProtocolParse error for the given stage.
func ProtocolParse(stage Stage, message string) *AppError {
	return &AppError{
		Code:    ErrCodeProtocolParse,
		Stage:   stage,
		Message: message,
	}
}

// ProtocolParsef creates a new ProtocolParse error with formatted message.
func ProtocolParsef(stage Stage, format string, args ...any) *AppError {
	return ProtocolParse(stage, fmt.Sprintf(format, args...))
}

// Transport wraps an HTTP-layer failure. The cause is kept as-is so callers can still
// match on context.DeadlineExceeded, *url.Error or *StatusError.
func Transport(stage Stage, err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    ErrCodeTransport,
		Stage:   stage,
		Message: "transport failure",
		Cause:   err,
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithStage returns err tagged with stage. AppErrors without a stage get it filled in;
// any other error is wrapped as an internal error.
func WithStage(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Stage != "" {
			return err
		}
		cp := *appErr
		cp.Stage = stage
		return &cp
	}
	return &AppError{Code: ErrCodeInternal, Stage: stage, Message: "unexpected failure", Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsAuthentication checks if an error is an Authentication error.
func IsAuthentication(err error) bool {
	return isCode(err, ErrCodeAuthentication)
}

// IsProtocolParse checks if an error is a ProtocolParse error.
func IsProtocolParse(err error) bool {
	return isCode(err, ErrCodeProtocolParse)
}

// IsTransport checks if an error is a Transport error.
func IsTransport(err error) bool {
	return isCode(err, ErrCodeTransport)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetStage returns the Stage from an error, or empty string if not an AppError or no stage set.
func GetStage(err error) Stage {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Stage
	}
	return ""
}
