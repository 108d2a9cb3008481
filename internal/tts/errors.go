package tts

import (
	"errors"
	"fmt"
)

// Common reader errors
var (
	// ErrNoDocument indicates an operation needs a loaded document
	ErrNoDocument = errors.New("no document loaded")

	// ErrInvalidEngine indicates an unknown engine was specified
	ErrInvalidEngine = errors.New("invalid clip engine specified")

	// ErrEngineNotAvailable indicates the selected engine cannot run here
	ErrEngineNotAvailable = errors.New("selected clip engine is not available")

	// ErrMissingCredentials indicates a cloud engine has no API key
	ErrMissingCredentials = errors.New("missing cloud credentials")

	// ErrEmptyText indicates a generator was asked to render nothing
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong indicates the text exceeds the engine limit
	ErrTextTooLong = errors.New("text too long")

	// ErrAudioDeviceUnavailable indicates audio device cannot be accessed
	ErrAudioDeviceUnavailable = errors.New("audio device unavailable")

	// ErrUnsupportedAudio indicates generator output cannot be decoded
	ErrUnsupportedAudio = errors.New("unsupported audio format")
)

// TTSError represents a collaborator failure with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// Engine errors
	ErrorCodeEngineFailure     ErrorCode = "ENGINE_FAILURE"
	ErrorCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorCodeEngineTimeout     ErrorCode = "ENGINE_TIMEOUT"

	// Audio errors
	ErrorCodeAudioDevice ErrorCode = "AUDIO_DEVICE"
	ErrorCodeAudioFormat ErrorCode = "AUDIO_FORMAT"

	// Document errors
	ErrorCodeDocument ErrorCode = "DOCUMENT"
	ErrorCodeOCR      ErrorCode = "OCR"

	// System errors
	ErrorCodeTimeout  ErrorCode = "TIMEOUT"
	ErrorCodeCanceled ErrorCode = "CANCELED"
)

// NewTTSError creates a new error with an empty context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	e.Context[key] = value
	return e
}

// IsFatal returns true if the error should stop the reader
func (e *TTSError) IsFatal() bool {
	switch e.Code {
	case ErrorCodeEngineUnavailable, ErrorCodeAudioDevice:
		return true
	default:
		return false
	}
}

// IsRetryable returns true if the operation can be retried
func (e *TTSError) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeTimeout, ErrorCodeEngineTimeout:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err wraps a retryable TTSError.
func IsRetryable(err error) bool {
	var te *TTSError
	return errors.As(err, &te) && te.IsRetryable()
}

// IsFatal reports whether err wraps a fatal TTSError.
func IsFatal(err error) bool {
	var te *TTSError
	return errors.As(err, &te) && te.IsFatal()
}
