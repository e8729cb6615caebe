package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode is the application-level error code carried alongside the
// HTTP status
type ErrorCode int

const (
	ErrorCode_HTTP_OK          ErrorCode = 0
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1004

	ErrorCode_CALL_NOT_ACTIVE        ErrorCode = 2000
	ErrorCode_CALL_NOT_FOUND         ErrorCode = 2001
	ErrorCode_CALL_ALREADY_ACTIVE    ErrorCode = 2002
	ErrorCode_SEGMENT_REJECTED       ErrorCode = 2003
	ErrorCode_TRIGGER_NOT_FOUND      ErrorCode = 2004
	ErrorCode_PLAYBOOK_NOT_FOUND     ErrorCode = 2005
	ErrorCode_REPORT_NOT_FOUND       ErrorCode = 2006
	ErrorCode_GENERATION_FAILED      ErrorCode = 2100
	ErrorCode_GENERATION_UNAVAILABLE ErrorCode = 2101

	ErrorCode_DB_QUERY_FAILED            ErrorCode = 3000
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 3001
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 3002
)

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	switch c {
	case ErrorCode_HTTP_OK:
		return "OK"
	case ErrorCode_INTERNAL:
		return "INTERNAL"
	case ErrorCode_INVALID_ARGUMENT:
		return "INVALID_ARGUMENT"
	case ErrorCode_NOT_FOUND:
		return "NOT_FOUND"
	case ErrorCode_ALREADY_EXISTS:
		return "ALREADY_EXISTS"
	case ErrorCode_INVALID_PAYLOAD:
		return "INVALID_PAYLOAD"
	case ErrorCode_CALL_NOT_ACTIVE:
		return "CALL_NOT_ACTIVE"
	case ErrorCode_CALL_NOT_FOUND:
		return "CALL_NOT_FOUND"
	case ErrorCode_CALL_ALREADY_ACTIVE:
		return "CALL_ALREADY_ACTIVE"
	case ErrorCode_SEGMENT_REJECTED:
		return "SEGMENT_REJECTED"
	case ErrorCode_TRIGGER_NOT_FOUND:
		return "TRIGGER_NOT_FOUND"
	case ErrorCode_PLAYBOOK_NOT_FOUND:
		return "PLAYBOOK_NOT_FOUND"
	case ErrorCode_REPORT_NOT_FOUND:
		return "REPORT_NOT_FOUND"
	case ErrorCode_GENERATION_FAILED:
		return "GENERATION_FAILED"
	case ErrorCode_GENERATION_UNAVAILABLE:
		return "GENERATION_UNAVAILABLE"
	case ErrorCode_DB_QUERY_FAILED:
		return "DB_QUERY_FAILED"
	case ErrorCode_INTEGRATION_STORAGE_FAILED:
		return "INTEGRATION_STORAGE_FAILED"
	case ErrorCode_INTEGRATION_CACHE_FAILED:
		return "INTEGRATION_CACHE_FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(c))
	}
}

// AppError is the custom error type for the application
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// Call Lifecycle Errors
func ErrCallNotActive() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_CALL_NOT_ACTIVE,
		Message:  "No call is currently active",
	}
}

func ErrCallNotFound(callID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_CALL_NOT_FOUND,
		Message:  "Call not found",
	}.WithDetail("call_id", callID)
}

func ErrSegmentRejected(reason string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_SEGMENT_REJECTED,
		Message:  "Segment rejected",
	}.WithDetail("reason", reason)
}

func ErrTriggerNotFound(triggerID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_TRIGGER_NOT_FOUND,
		Message:  "Cue card trigger not found",
	}.WithDetail("trigger_id", triggerID)
}

func ErrPlaybookNotFound(playbookID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_PLAYBOOK_NOT_FOUND,
		Message:  "Playbook not found",
	}.WithDetail("playbook_id", playbookID)
}

func ErrReportNotFound(callID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_REPORT_NOT_FOUND,
		Message:  "Report not found",
	}.WithDetail("call_id", callID)
}

// Text-Generation Errors
func ErrGenerationFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_GENERATION_FAILED,
		Message:  "Text generation failed",
	}
}

func ErrGenerationUnavailable() AppError {
	return AppError{
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_GENERATION_UNAVAILABLE,
		Message:  "Text generation service temporarily unavailable",
	}
}

// Storage Errors
func ErrDBQueryFailed(query string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Message:  "Database query failed",
	}.WithDetail("query", query)
}

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrCacheFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_CACHE_FAILED,
		Message:  fmt.Sprintf("Cache operation failed: %s", operation),
	}
}
