package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emzola/libris/data"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

type books interface {
	InsertBook(ctx context.Context, book *data.Book) error
	GetBook(ctx context.Context, bookID int64) (*data.Book, error)
	BookExists(ctx context.Context, bookID int64) (bool, error)
	GetAllBooks(ctx context.Context, filters data.BookFilters) ([]*data.Book, error)
	UpdateBook(ctx context.Context, book *data.Book) error
	BorrowBook(ctx context.Context, bookID int64, borrower string) (*data.Book, error)
	DeleteBook(ctx context.Context, bookID int64) error
}

// InsertBook creates a new book record.
func (r *repository) InsertBook(ctx context.Context, book *data.Book) error {
	query := `
		INSERT INTO books (title, author, category, available, borrowed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version`
	args := []interface{}{book.Title, book.Author, book.Category, book.Available, book.BorrowedBy}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&book.ID, &book.CreatedAt, &book.Version)
	if err != nil {
		return mapPQError(err)
	}
	return nil
}

// GetBook retrieves a book record by its ID.
func (r *repository) GetBook(ctx context.Context, bookID int64) (*data.Book, error) {
	if bookID < 1 {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT id, created_at, title, author, category, available, borrowed_by, cover_url, version
		FROM books
		WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	book, err := scanBook(r.db.QueryRowContext(ctx, query, bookID))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return book, nil
}

// BookExists reports whether a book record with the given ID exists.
func (r *repository) BookExists(ctx context.Context, bookID int64) (bool, error) {
	if bookID < 1 {
		return false, nil
	}
	query := `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var exists bool
	err := r.db.QueryRowContext(ctx, query, bookID).Scan(&exists)
	return exists, err
}

// GetAllBooks retrieves every book record in insertion order. Search matches title or
// author case-insensitively; category must match exactly.
func (r *repository) GetAllBooks(ctx context.Context, filters data.BookFilters) ([]*data.Book, error) {
	query := `
		SELECT id, created_at, title, author, category, available, borrowed_by, cover_url, version
		FROM books
		WHERE (strpos(lower(title), lower($1)) > 0 OR strpos(lower(author), lower($1)) > 0 OR $1 = '')
		AND (category = $2 OR $2 = '')
		ORDER BY id ASC`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, filters.Search, filters.Category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	books := []*data.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook overwrites a book record. The update only applies if the record still
// has the version that was read; otherwise ErrEditConflict is returned.
func (r *repository) UpdateBook(ctx context.Context, book *data.Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, category = $3, available = $4, borrowed_by = $5, cover_url = $6, version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version`
	args := []interface{}{
		book.Title,
		book.Author,
		book.Category,
		book.Available,
		book.BorrowedBy,
		book.CoverURL,
		book.ID,
		book.Version,
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&book.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return mapPQError(err)
		}
	}
	return nil
}

// BorrowBook lends a book to borrower in a single conditional update, so that of two
// concurrent borrows of the same book only one can succeed.
func (r *repository) BorrowBook(ctx context.Context, bookID int64, borrower string) (*data.Book, error) {
	if bookID < 1 {
		return nil, ErrRecordNotFound
	}
	query := `
		UPDATE books
		SET available = false, borrowed_by = $1, version = version + 1
		WHERE id = $2 AND available = true
		RETURNING id, created_at, title, author, category, available, borrowed_by, cover_url, version`
	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	book, err := scanBook(r.db.QueryRowContext(qctx, query, borrower, bookID))
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapPQError(err)
	}
	// Nothing was updated: the book is either missing or already lent out.
	current, err := r.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if current.Available {
		return nil, ErrEditConflict
	}
	return nil, &AlreadyBorrowedError{Borrower: current.BorrowedBy}
}

// DeleteBook deletes a book record.
func (r *repository) DeleteBook(ctx context.Context, bookID int64) error {
	if bookID < 1 {
		return ErrRecordNotFound
	}
	query := `
		DELETE FROM books
		WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, bookID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(s scanner) (*data.Book, error) {
	var book data.Book
	err := s.Scan(
		&book.ID,
		&book.CreatedAt,
		&book.Title,
		&book.Author,
		&book.Category,
		&book.Available,
		&book.BorrowedBy,
		&book.CoverURL,
		&book.Version,
	)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// mapPQError turns constraint failures raised by PostgreSQL into ErrFailedValidation.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "string_data_right_truncation", "check_violation", "not_null_violation":
		return fmt.Errorf("%w: %s", ErrFailedValidation, pqErr.Message)
	default:
		return err
	}
}
