// Package errors provides structured error handling for the application.
// It defines AppError type with error codes for consistent API responses.
package errors

import (
	"errors"
	"fmt"
)

// Error codes organized by category
const (
	// General errors (1000-1099)
	CodeSuccess       = 0
	CodeUnknown       = 1000
	CodeInvalidParams = 1001
	CodeNotFound      = 1002

	// Media input errors (1100-1199)
	CodeMediaUnreadable = 1100
	CodeAudioExtract    = 1101

	// Transcription errors (1200-1299)
	CodeTranscribeFailed = 1200

	// Scene detection / selection errors (1300-1399)
	CodeSceneDetectFailed = 1300
	CodeNoEligibleContent = 1301

	// Render errors (1400-1499)
	CodeRenderFailed    = 1400
	CodeAllClipsFailed  = 1401
	CodeThumbnailFailed = 1402

	// Storage / persistence errors (1500-1599)
	CodeDBError          = 1500
	CodeFileNotFound     = 1501
	CodeSignedURLFailed  = 1502
	CodeUploadFailed     = 1503
	CodeRowInsertFailed  = 1504
	CodeStatusUpdateFail = 1505
)

// AppError represents a structured application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetail wraps an error with additional detail
func WrapWithDetail(code int, message string, detail string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}

// Is checks if the target error is an AppError with the specified code
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts error code from error, returns CodeUnknown if not AppError
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage extracts message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Predefined common errors
var (
	ErrNoEligibleContent = New(CodeNoEligibleContent, "No scene meets the minimum word count")
	ErrAllClipsFailed    = New(CodeAllClipsFailed, "All clip renders failed")
)
