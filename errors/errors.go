// Package errors provides unified error handling for the transcription pipeline.
// It implements structured error types with machine-readable codes, retryable
// detection, and a clean split between fatal pipeline errors and per-chunk
// errors the pipeline absorbs.
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Pipeline-level constructors ---

// NoTranscribableAudio creates the fatal error for a run that produced zero chunks.
func NoTranscribableAudio() *AppError {
	return &AppError{
		Code: ErrCodeNoTranscribableAudio, Message: "Segmentation produced no transcribable audio chunks.",
		Retryable: false,
	}
}

// BackendUnavailable creates the fatal error for a backend that failed its pre-run check.
func BackendUnavailable(backend string) *AppError {
	return &AppError{
		Code: ErrCodeBackendUnavailable, Message: fmt.Sprintf("The %s backend is not available. Check that it is installed and reachable.", backend),
		Retryable: false,
		Details:   map[string]any{"backend": backend},
	}
}

// StagingFailed creates the fatal error for chunk audio that could not be staged.
func StagingFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeStagingFailed, Message: "Chunk audio could not be staged for transcription.",
		Retryable: false, Cause: cause,
	}
}

// Cancelled creates the terminal error for a caller-cancelled run.
func Cancelled() *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: "The run was cancelled.",
		Retryable: false,
	}
}

// --- Per-chunk constructors ---

// Unintelligible creates a per-chunk error for audio the backend could not understand.
func Unintelligible(backend string) *AppError {
	return &AppError{
		Code: ErrCodeUnintelligible, Message: fmt.Sprintf("The %s backend could not understand the audio.", backend),
		Retryable: false,
		Details:   map[string]any{"backend": backend},
	}
}

// ServiceUnavailable creates a per-chunk error for an unreachable backend service.
func ServiceUnavailable(backend string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s service is temporarily unavailable. Please try again.", backend),
		Retryable: true, Cause: cause,
		Details: map[string]any{"backend": backend},
	}
}

// Configuration creates a per-chunk error for a misconfigured backend.
func Configuration(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConfiguration, Message: fmt.Sprintf("Backend configuration error: %s", reason),
		Retryable: false,
	}
}

// Timeout creates a per-chunk error for a transcription call that exceeded its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The transcription call took too long.",
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// RateLimited creates a per-chunk error for too many requests against the backend.
func RateLimited(backend string) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please wait a moment and try again.",
		Retryable: true,
		Details:   map[string]any{"backend": backend},
	}
}

// --- Acquisition constructors ---

// DownloadFailed creates an error for source audio that could not be fetched.
func DownloadFailed(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDownloadFailed, Message: fmt.Sprintf("Audio could not be downloaded from %s.", source),
		Retryable: true, Cause: cause,
		Details: map[string]any{"source": source},
	}
}

// DecodeFailed creates an error for audio that could not be decoded to PCM.
func DecodeFailed(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDecodeFailed, Message: "Downloaded audio could not be decoded.",
		Retryable: false, Cause: cause,
		Details: map[string]any{"path": path},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Retryable: false, Details: details,
	}
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsChunkError reports whether err is a per-chunk transcription error that the
// pipeline records as a failed chunk result instead of aborting.
func IsChunkError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return IsChunkCode(appErr.Code)
	}
	return false
}

// CodeOf returns the ErrorCode of err, or empty string for non-AppErrors.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}
