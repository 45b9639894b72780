package repository

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrFailedValidation = errors.New("failed validation")
	ErrEditConflict     = errors.New("edit conflict")
	ErrAlreadyBorrowed  = errors.New("already borrowed")
)

// AlreadyBorrowedError reports a borrow attempt on a book that is currently lent out.
type AlreadyBorrowedError struct {
	Borrower string
}

func (e *AlreadyBorrowedError) Error() string {
	return fmt.Sprintf("book is already borrowed by: %s", e.Borrower)
}

func (e *AlreadyBorrowedError) Unwrap() error {
	return ErrAlreadyBorrowed
}
