package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/emzola/libris/data"
	"github.com/emzola/libris/data/dto"
	"github.com/emzola/libris/internal/validator"
	"github.com/emzola/libris/repository"
)

type books interface {
	AddBook(ctx context.Context, requestBody dto.BookRequestBody) (*data.Book, error)
	GetAllBooks(ctx context.Context, qs dto.QsListBooks) ([]*data.Book, error)
	GetBook(ctx context.Context, bookID int64) (*data.Book, error)
	UpdateBook(ctx context.Context, bookID int64, requestBody dto.BookRequestBody) (*data.Book, error)
	BorrowBook(ctx context.Context, bookID int64, requestBody dto.BorrowRequestBody) (*data.Book, error)
	ReturnBook(ctx context.Context, bookID int64) (*data.Book, error)
	DeleteBook(ctx context.Context, bookID int64) error
	UpdateBookCover(ctx context.Context, bookID int64, r *http.Request) (*data.Book, error)
}

// AddBook service creates a new, available book.
func (s *service) AddBook(ctx context.Context, requestBody dto.BookRequestBody) (*data.Book, error) {
	v := validator.New()
	if data.ValidateBook(v, requestBody.Title, requestBody.Author); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	book := requestBody.NewBook()
	err := s.repo.InsertBook(ctx, book)
	if err != nil {
		return nil, s.translate(err)
	}
	return book, nil
}

// GetAllBooks service retrieves every book, optionally filtered by search term and category.
func (s *service) GetAllBooks(ctx context.Context, qs dto.QsListBooks) ([]*data.Book, error) {
	books, err := s.repo.GetAllBooks(ctx, data.BookFilters{Search: qs.Search, Category: qs.Category})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// GetBook service retrieves the details of a book.
func (s *service) GetBook(ctx context.Context, bookID int64) (*data.Book, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, s.translate(err)
	}
	return book, nil
}

// UpdateBook service replaces the title, author and category of a book. Availability
// and borrower are never changed here, whatever the request body carries.
func (s *service) UpdateBook(ctx context.Context, bookID int64, requestBody dto.BookRequestBody) (*data.Book, error) {
	v := validator.New()
	if data.ValidateBook(v, requestBody.Title, requestBody.Author); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, s.translate(err)
	}
	requestBody.ApplyMetadata(book)
	err = s.repo.UpdateBook(ctx, book)
	if err != nil {
		return nil, s.translate(err)
	}
	return book, nil
}

// BorrowBook service lends an available book to a borrower.
func (s *service) BorrowBook(ctx context.Context, bookID int64, requestBody dto.BorrowRequestBody) (*data.Book, error) {
	v := validator.New()
	if data.ValidateBorrower(v, requestBody.BorrowerName); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	book, err := s.repo.BorrowBook(ctx, bookID, requestBody.BorrowerName)
	if err != nil {
		return nil, s.translate(err)
	}
	return book, nil
}

// ReturnBook service puts a book back on the shelf. Returning a book that is not
// borrowed succeeds and leaves it available.
func (s *service) ReturnBook(ctx context.Context, bookID int64) (*data.Book, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, s.translate(err)
	}
	book.Return()
	err = s.repo.UpdateBook(ctx, book)
	if err != nil {
		return nil, s.translate(err)
	}
	return book, nil
}

// DeleteBook service removes a book permanently.
func (s *service) DeleteBook(ctx context.Context, bookID int64) error {
	exists, err := s.repo.BookExists(ctx, bookID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRecordNotFound
	}
	err = s.repo.DeleteBook(ctx, bookID)
	if err != nil {
		return s.translate(err)
	}
	if s.covers != nil {
		s.background(func() {
			ctx, cancel := context.WithTimeout(context.Background(), coverTimeout)
			defer cancel()
			if err := s.covers.Delete(ctx, bookID); err != nil {
				s.logger.PrintError(err, map[string]string{"book_id": fmt.Sprint(bookID)})
			}
		})
	}
	return nil
}

// translate maps repository errors onto the service's own error values.
func (s *service) translate(err error) error {
	var borrowed *repository.AlreadyBorrowedError
	switch {
	case errors.As(err, &borrowed):
		return &AlreadyBorrowedError{Borrower: borrowed.Borrower}
	case errors.Is(err, repository.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, repository.ErrEditConflict):
		return ErrEditConflict
	case errors.Is(err, repository.ErrFailedValidation):
		return fmt.Errorf("%w: %v", ErrFailedValidation, err)
	default:
		return err
	}
}
