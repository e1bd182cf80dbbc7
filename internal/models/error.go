package models

import "errors"

// Error kinds. Use errors.Is against these to classify a failure.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("resource already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrPersistence  = errors.New("persistence failure")
	ErrStorage      = errors.New("storage failure")
)

// Error carries a client-facing message together with its kind and an optional cause
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewValidationError(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

func NewConflictError(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func NewAuthError(message string) error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

func NewNotFoundError(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func NewPersistenceError(message string, err error) error {
	return &Error{Kind: ErrPersistence, Message: message, Err: err}
}

func NewStorageError(message string, err error) error {
	return &Error{Kind: ErrStorage, Message: message, Err: err}
}
