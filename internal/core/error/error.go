package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// GenerationFailedMessage is what the end user sees when the backend call fails.
	GenerationFailedMessage = "failed to generate response, please try again"
)

var (
	ErrScenarioNotFound     = errors.New("scenario not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrGenerationFailed     = errors.New("generation failed")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// ScenarioNotFound reports an unknown scenario id.
func ScenarioNotFound(id string) *AppError {
	return New(fmt.Errorf("%w: %q", ErrScenarioNotFound, id), http.StatusNotFound, "scenario not found")
}

// ConversationNotFound reports a conversation id unknown to the state store.
func ConversationNotFound(id string) *AppError {
	return New(fmt.Errorf("%w: %q", ErrConversationNotFound, id), http.StatusNotFound, "conversation not found")
}

// InvalidRequest reports a missing or malformed client field.
func InvalidRequest(reason string) *AppError {
	return New(fmt.Errorf("%w: %s", ErrInvalidRequest, reason), http.StatusBadRequest, reason)
}

// GenerationFailed wraps a backend transport, timeout or API error.
func GenerationFailed(cause error) *AppError {
	return New(fmt.Errorf("%w: %v", ErrGenerationFailed, cause), http.StatusInternalServerError, GenerationFailedMessage)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the safe message carried by err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
