package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emzola/libris/data"
	"github.com/emzola/libris/internal/validator"
	"github.com/gabriel-vasile/mimetype"
)

const coverTimeout = 10 * time.Second

var supportedCoverTypes = []string{"image/jpeg", "image/png"}

// UpdateBookCover service uploads a cover image for a book and records its URL.
func (s *service) UpdateBookCover(ctx context.Context, bookID int64, r *http.Request) (*data.Book, error) {
	if s.covers == nil {
		return nil, ErrCoversDisabled
	}
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, s.translate(err)
	}
	err = r.ParseMultipartForm(5000)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesError):
			return nil, ErrContentTooLarge
		default:
			return nil, ErrBadRequest
		}
	}
	file, _, err := r.FormFile(data.ScopeCover)
	if err != nil {
		return nil, ErrBadRequest
	}
	defer file.Close()
	buffer, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	mtype := mimetype.Detect(buffer)
	if validMime := validator.Mime(mtype, supportedCoverTypes...); !validMime {
		return nil, ErrUnsupportedMediaType
	}
	uploadCtx, cancel := context.WithTimeout(ctx, coverTimeout)
	defer cancel()
	url, err := s.covers.Upload(uploadCtx, book.ID, buffer, mtype.String())
	if err != nil {
		return nil, err
	}
	book.CoverURL = url
	err = s.repo.UpdateBook(ctx, book)
	if err != nil {
		return nil, s.translate(err)
	}
	return book, nil
}

// background launches a background goroutine and recovers from panics inside
// the goroutine. It accepts an arbitrary function as a parameter and executes
// the function parameter inside the goroutine.
func (s *service) background(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				s.logger.PrintError(fmt.Errorf("%s", err), nil)
			}
		}()
		fn()
	}()
}
