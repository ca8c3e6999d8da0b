package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"newspaper-reader/internal/domain"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeUnsupportedType ErrorType = "unsupported_type"
	ErrorTypeTooLarge        ErrorType = "too_large"
	ErrorTypeProcessing      ErrorType = "processing"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeInternal        ErrorType = "internal"
	ErrorTypeNetwork         ErrorType = "network"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Details:    detail,
		StatusCode: http.StatusBadRequest,
	}
}

// NewUnsupportedTypeError creates an error for rejected media types
func NewUnsupportedTypeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnsupportedType,
		Message:    message,
		StatusCode: http.StatusUnsupportedMediaType,
		Cause:      cause,
	}
}

// NewTooLargeError creates an error for payloads above the size ceiling
func NewTooLargeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTooLarge,
		Message:    message,
		StatusCode: http.StatusRequestEntityTooLarge,
		Cause:      cause,
	}
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeProcessing,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Cause:      cause,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewNetworkError creates an error for a failed call to a remote service
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// FromDomain translates a domain error into an AppError.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	var verr *domain.ValidationError
	if stderrors.As(err, &verr) {
		return NewValidationError(verr.Error())
	}

	switch {
	case stderrors.Is(err, domain.ErrFileTypeRejected):
		return NewUnsupportedTypeError("Please upload a PDF file", err)
	case stderrors.Is(err, domain.ErrFileTooLarge):
		return NewTooLargeError("File is too large", err)
	case stderrors.Is(err, domain.ErrExtractionFailed):
		return NewProcessingError("Could not extract text from the PDF", err)
	case stderrors.Is(err, domain.ErrUploadFailed):
		return NewNetworkError("Could not upload the file", err)
	case stderrors.Is(err, domain.ErrRecordInsertFailed):
		return NewNetworkError("Could not save the newspaper record", err)
	case stderrors.Is(err, domain.ErrSecretLookupFailed):
		return NewNetworkError("Voice API key is unavailable", err)
	case stderrors.Is(err, domain.ErrSynthesisFailed):
		return NewNetworkError("Speech synthesis failed", err)
	case stderrors.Is(err, domain.ErrSuperseded):
		return NewConflictError("Selection was replaced by a newer file", err)
	case stderrors.Is(err, domain.ErrNoDocument):
		return NewConflictError("No newspaper selected", err)
	case stderrors.Is(err, domain.ErrNewspaperNotFound):
		return NewNotFoundError("Newspaper not found")
	case stderrors.Is(err, domain.ErrPersistenceOff), stderrors.Is(err, domain.ErrSynthesizerMissing):
		return NewNotFoundError(err.Error())
	default:
		return NewInternalError("Internal server error", err)
	}
}
