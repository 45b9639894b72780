package dto

import "github.com/emzola/libris/data"

// BookRequestBody defines the request body for AddBook and UpdateBook. It mirrors the
// Book representation so clients can send back what they read; ID, Available and
// BorrowedBy are accepted but never applied.
type BookRequestBody struct {
	ID         *int64  `json:"id"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Category   *string `json:"category"`
	Available  *bool   `json:"available"`
	BorrowedBy *string `json:"borrowedBy"`
}

// BorrowRequestBody defines the request body for BorrowBook.
type BorrowRequestBody struct {
	BorrowerName string `json:"borrowerName"`
}

// QsListBooks defines the query strings used for listing books.
type QsListBooks struct {
	Search   string
	Category string
}

// Book is the external representation of a book.
type Book struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Category   *string `json:"category"`
	Available  bool    `json:"available"`
	BorrowedBy *string `json:"borrowedBy"`
	CoverURL   string  `json:"coverUrl,omitempty"`
}

// FromBook translates a book model into its external representation.
func FromBook(book *data.Book) Book {
	return Book{
		ID:         book.ID,
		Title:      book.Title,
		Author:     book.Author,
		Category:   nullable(book.Category),
		Available:  book.Available,
		BorrowedBy: nullable(book.BorrowedBy),
		CoverURL:   book.CoverURL,
	}
}

// FromBooks translates a slice of book models. The result is never nil.
func FromBooks(books []*data.Book) []Book {
	out := make([]Book, 0, len(books))
	for _, book := range books {
		out = append(out, FromBook(book))
	}
	return out
}

// NewBook builds a fresh, available book from a request body.
func (b BookRequestBody) NewBook() *data.Book {
	return &data.Book{
		Title:     b.Title,
		Author:    b.Author,
		Category:  b.category(),
		Available: true,
	}
}

// ApplyMetadata copies title, author and category onto book. Availability and
// borrower are left alone.
func (b BookRequestBody) ApplyMetadata(book *data.Book) {
	book.Title = b.Title
	book.Author = b.Author
	book.Category = b.category()
}

func (b BookRequestBody) category() string {
	if b.Category == nil {
		return ""
	}
	return *b.Category
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
