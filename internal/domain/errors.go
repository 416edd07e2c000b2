package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches sentinel domain errors by code and message so that a wrapped
// copy (see Wrap) still satisfies errors.Is against the sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Wrap returns a copy of the sentinel carrying cause as its underlying error.
func (e *DomainError) Wrap(cause error) *DomainError {
	return NewDomainErrorWithCause(e.Code, e.Message, cause)
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// AsDomainError extracts the outermost DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeUpstream         = "UPSTREAM_ERROR"
	ErrCodeGenerationFailed = "GENERATION_FAILED"
)

// Validation errors
var (
	ErrInvalidProperty      = NewDomainError(ErrCodeValidation, "invalid property")
	ErrEmptyQuestion        = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "search query cannot be empty")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrPropertyNotFound     = NewDomainError(ErrCodeNotFound, "property not found")
	ErrImportSourceMissing  = NewDomainError(ErrCodeNotFound, "import source not found")
	ErrSessionNotRegistered = NewDomainError(ErrCodeNotFound, "chat session not registered")
)

// Already exists errors
var (
	ErrPropertyAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "property already exists")
)

// Authorization errors
var (
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
)

// Turn errors. Only generation and embedding of the question abort a turn;
// catalog trouble degrades to unresolved identifiers.
var (
	ErrGenerationFailed = NewDomainError(ErrCodeGenerationFailed, "answer generation failed")
	ErrEmbeddingFailed  = NewDomainError(ErrCodeUpstream, "embedding generation failed")
	ErrCatalogFailed    = NewDomainError(ErrCodeUpstream, "catalog lookup failed")
)
