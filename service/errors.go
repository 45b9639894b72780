package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrFailedValidation     = errors.New("failed validation")
	ErrRecordNotFound       = errors.New("record not found")
	ErrEditConflict         = errors.New("edit conflict")
	ErrAlreadyBorrowed      = errors.New("already borrowed")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrContentTooLarge      = errors.New("content too large")
	ErrBadRequest           = errors.New("bad request")
	ErrCoversDisabled       = errors.New("cover storage is not configured")
)

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%q %s", k, e.Errors[k]))
	}
	return strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrFailedValidation
}

// AlreadyBorrowedError is returned when a book that is lent out is borrowed again.
type AlreadyBorrowedError struct {
	Borrower string
}

func (e *AlreadyBorrowedError) Error() string {
	return fmt.Sprintf("book is already borrowed by: %s", e.Borrower)
}

func (e *AlreadyBorrowedError) Unwrap() error {
	return ErrAlreadyBorrowed
}

// failedValidation wraps a validation error map into a ValidationError.
func failedValidation(errorMap map[string]string) error {
	return &ValidationError{Errors: errorMap}
}
