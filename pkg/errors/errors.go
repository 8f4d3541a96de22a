// Package errors holds the sentinel errors shared by the vectorizer and the
// services built on it, plus an AppError carrying an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFitted          = errors.New("model is not fitted")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCorruptModel       = errors.New("corrupt model file")
	ErrUnsupportedVersion = errors.New("unsupported model format version")
	ErrEmptyCorpus        = errors.New("empty corpus")
	ErrTooManyDocuments   = errors.New("too many documents")
	ErrTimeout            = errors.New("operation timed out")
	ErrInternal           = errors.New("internal error")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Invalidf wraps ErrInvalidInput with a formatted detail message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Corruptf wraps ErrCorruptModel with a formatted detail message.
func Corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptModel, fmt.Sprintf(format, args...))
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrEmptyCorpus):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyDocuments):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNotFitted):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
