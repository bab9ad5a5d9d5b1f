package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrorType string

const (
	ValidationError ErrorType = "validation"
	ConfigError     ErrorType = "config"
	NetworkError    ErrorType = "network"
	ProcessingError ErrorType = "processing"
	BackendError    ErrorType = "backend"
	NotFoundError   ErrorType = "not_found"
)

type AppError struct {
	Type       ErrorType
	Message    string
	Cause      error
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewValidationError(message string, cause error) *AppError {
	return &AppError{Type: ValidationError, Message: message, Cause: cause}
}

func NewConfigError(message string, cause error) *AppError {
	return &AppError{Type: ConfigError, Message: message, Cause: cause}
}

func NewNetworkError(message string, cause error) *AppError {
	return &AppError{Type: NetworkError, Message: message, Cause: cause}
}

func NewProcessingError(message string, cause error) *AppError {
	return &AppError{Type: ProcessingError, Message: message, Cause: cause}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Type: NotFoundError, Message: message}
}

func NewBackendError(statusCode int, message string) *AppError {
	return &AppError{Type: BackendError, Message: message, StatusCode: statusCode}
}

func IsType(err error, t ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Type == t {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
