// Package memory implements the repository layer on top of an in-process map.
// It is used by tests and by the server when no database DSN is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emzola/libris/data"
	"github.com/emzola/libris/repository"
)

// Repository keeps book records in memory. The zero value is not usable; call New.
type Repository struct {
	mu     sync.Mutex
	nextID int64
	books  map[int64]data.Book
}

var _ repository.Repository = (*Repository)(nil)

// New creates an empty in-memory repository.
func New() *Repository {
	return &Repository{
		nextID: 1,
		books:  make(map[int64]data.Book),
	}
}

func (r *Repository) InsertBook(_ context.Context, book *data.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	book.ID = r.nextID
	book.CreatedAt = time.Now().UTC()
	book.Version = 1
	r.nextID++
	r.books[book.ID] = *book
	return nil
}

func (r *Repository) GetBook(_ context.Context, bookID int64) (*data.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[bookID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return &book, nil
}

func (r *Repository) BookExists(_ context.Context, bookID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.books[bookID]
	return ok, nil
}

func (r *Repository) GetAllBooks(_ context.Context, filters data.BookFilters) ([]*data.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.ToLower(filters.Search)
	books := []*data.Book{}
	for _, book := range r.books {
		if search != "" &&
			!strings.Contains(strings.ToLower(book.Title), search) &&
			!strings.Contains(strings.ToLower(book.Author), search) {
			continue
		}
		if filters.Category != "" && book.Category != filters.Category {
			continue
		}
		book := book
		books = append(books, &book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

func (r *Repository) UpdateBook(_ context.Context, book *data.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.books[book.ID]
	if !ok || current.Version != book.Version {
		return repository.ErrEditConflict
	}
	book.Version++
	r.books[book.ID] = *book
	return nil
}

func (r *Repository) BorrowBook(_ context.Context, bookID int64, borrower string) (*data.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[bookID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	if !book.Available {
		return nil, &repository.AlreadyBorrowedError{Borrower: book.BorrowedBy}
	}
	book.Borrow(borrower)
	book.Version++
	r.books[bookID] = book
	return &book, nil
}

func (r *Repository) DeleteBook(_ context.Context, bookID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[bookID]; !ok {
		return repository.ErrRecordNotFound
	}
	delete(r.books, bookID)
	return nil
}
