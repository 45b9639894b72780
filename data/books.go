package data

import (
	"time"

	"github.com/emzola/libris/internal/validator"
)

const ScopeCover = "cover"

// Book defines a book model.
type Book struct {
	ID         int64
	CreatedAt  time.Time
	Title      string
	Author     string
	Category   string
	Available  bool
	BorrowedBy string
	CoverURL   string
	Version    int32
}

// Borrow marks the book as lent to borrower.
func (b *Book) Borrow(borrower string) {
	b.Available = false
	b.BorrowedBy = borrower
}

// Return marks the book as back on the shelf. Returning an available book is a no-op.
func (b *Book) Return() {
	b.Available = true
	b.BorrowedBy = ""
}

// BookFilters narrows down a book listing. Zero values match everything.
type BookFilters struct {
	Search   string
	Category string
}

// ValidateBook checks the catalog metadata of a book.
func ValidateBook(v *validator.Validator, title, author string) {
	v.Check(validator.NotBlank(title), "title", "must be provided")
	v.Check(validator.Between(title, 2, 100), "title", "must be between 2 and 100 characters")
	v.Check(validator.NotBlank(author), "author", "must be provided")
	v.Check(validator.Between(author, 2, 50), "author", "must be between 2 and 50 characters")
}

// ValidateBorrower checks the name recorded against a borrowed book.
func ValidateBorrower(v *validator.Validator, borrowerName string) {
	v.Check(validator.NotBlank(borrowerName), "borrowerName", "must be provided")
}
