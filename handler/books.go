package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/emzola/libris/data/dto"
	"github.com/emzola/libris/service"
)

// CreateBook godoc
// @Summary Add a new book
// @Description This endpoint adds a new, available book to the catalog
// @Tags books
// @Accept  json
// @Produce json
// @Param body body dto.BookRequestBody true "JSON payload required to add a book"
// @Success 201 {object} dto.Book
// @Failure 400
// @Failure 500
// @Router /books [post]
func (h *Handler) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.BookRequestBody
	if err := h.decodeJSON(w, r, &requestBody); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	book, err := h.service.AddBook(r.Context(), requestBody)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/books/%d", book.ID))
	if err := h.encodeJSON(w, http.StatusCreated, dto.FromBook(book), headers); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ListBooks godoc
// @Summary List all books
// @Description This endpoint lists every book in the catalog in the order they were added
// @Tags books
// @Produce json
// @Param search query string false "Case-insensitive match on title or author"
// @Param category query string false "Exact category"
// @Success 200 {array} dto.Book
// @Failure 500
// @Router /books [get]
func (h *Handler) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	var qsInput dto.QsListBooks
	qs := r.URL.Query()
	qsInput.Search = h.readString(qs, "search", "")
	qsInput.Category = h.readString(qs, "category", "")
	books, err := h.service.GetAllBooks(r.Context(), qsInput)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, dto.FromBooks(books), nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ShowBook godoc
// @Summary Show details of a book
// @Tags books
// @Produce json
// @Param bookId path int true "ID of book to show"
// @Success 200 {object} dto.Book
// @Failure 404
// @Failure 500
// @Router /books/{bookId} [get]
func (h *Handler) showBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "bookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	book, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, dto.FromBook(book), nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateBook godoc
// @Summary Update the details of a book
// @Description This endpoint replaces title, author and category. Availability and borrower are never changed.
// @Tags books
// @Accept  json
// @Produce json
// @Param bookId path int true "ID of book to update"
// @Param body body dto.BookRequestBody true "JSON payload required to update a book"
// @Success 200 {object} dto.Book
// @Failure 400
// @Failure 404
// @Failure 409
// @Failure 500
// @Router /books/{bookId} [put]
func (h *Handler) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "bookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.BookRequestBody
	if err := h.decodeJSON(w, r, &requestBody); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	book, err := h.service.UpdateBook(r.Context(), bookID, requestBody)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, dto.FromBook(book), nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// DeleteBook godoc
// @Summary Delete a book
// @Tags books
// @Param bookId path int true "ID of book to delete"
// @Success 204
// @Failure 404
// @Failure 500
// @Router /books/{bookId} [delete]
func (h *Handler) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "bookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	err = h.service.DeleteBook(r.Context(), bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BorrowBook godoc
// @Summary Borrow a book
// @Description This endpoint lends an available book to the named borrower
// @Tags books
// @Accept  json
// @Produce json
// @Param bookId path int true "ID of book to borrow"
// @Param body body dto.BorrowRequestBody true "JSON payload naming the borrower"
// @Success 200 {object} dto.Book
// @Failure 400
// @Failure 404
// @Failure 409
// @Failure 500
// @Router /books/{bookId}/borrow [put]
func (h *Handler) borrowBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "bookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.BorrowRequestBody
	if err := h.decodeJSON(w, r, &requestBody); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	book, err := h.service.BorrowBook(r.Context(), bookID, requestBody)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrAlreadyBorrowed):
			h.alreadyBorrowedResponse(w, r, err)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, dto.FromBook(book), nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ReturnBook godoc
// @Summary Return a book
// @Description This endpoint makes a book available again. Returning an available book is accepted.
// @Tags books
// @Produce json
// @Param bookId path int true "ID of book to return"
// @Success 200 {object} dto.Book
// @Failure 404
// @Failure 409
// @Failure 500
// @Router /books/{bookId}/return [put]
func (h *Handler) returnBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readIDParam(r, "bookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	book, err := h.service.ReturnBook(r.Context(), bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, dto.FromBook(book), nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateBookCover godoc
// @Summary Upload a book cover
// @Description This endpoint stores a JPEG or PNG cover image for a book
// @Tags books
// @Accept  mpfd
// @Produce json
// @Param bookId path int true "ID of book"
// @Param cover formData file true "Cover image"
// @Success 200 {object} dto.Book
// @Failure 400
// @Failure 404
// @Failure 413
// @Failure 415
// @Failure 503
// @Router /books/{bookId}/cover [put]
func (h *Handler) updateBookCoverHandler(w http.ResponseWriter, r *http.Request) {
	// Set 2MB limit for request body size
	maxBytes := int64(2_097_152)
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	bookID, err := h.readIDParam(r, "bookId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	book, err := h.service.UpdateBookCover(r.Context(), bookID, r)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCoversDisabled):
			h.coversDisabledResponse(w, r)
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrContentTooLarge):
			h.contentTooLargeResponse(w, r)
		case errors.Is(err, service.ErrBadRequest):
			h.badRequestResponse(w, r, err)
		case errors.Is(err, service.ErrUnsupportedMediaType):
			h.unsupportedMediaTypeResponse(w, r)
		case errors.Is(err, service.ErrEditConflict):
			h.editConflictResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	if err := h.encodeJSON(w, http.StatusOK, dto.FromBook(book), nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
