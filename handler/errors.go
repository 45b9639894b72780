package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/emzola/libris/service"
)

func (h *Handler) logError(r *http.Request, err error) {
	h.logger.PrintError(err, map[string]string{
		"request_method": r.Method,
		"request_url":    r.URL.String(),
	})
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := envelope{"error": message}
	err := h.encodeJSON(w, status, env, nil)
	if err != nil {
		h.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *Handler) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	h.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (h *Handler) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	h.errorResponse(w, r, http.StatusNotFound, message)
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	h.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (h *Handler) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// failedValidationResponse reports every invalid field when err carries them.
func (h *Handler) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		h.errorResponse(w, r, http.StatusBadRequest, vErr.Errors)
		return
	}
	h.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (h *Handler) alreadyBorrowedResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.errorResponse(w, r, http.StatusConflict, err.Error())
}

func (h *Handler) editConflictResponse(w http.ResponseWriter, r *http.Request) {
	message := "unable to update the record due to an edit conflict, please try again"
	h.errorResponse(w, r, http.StatusConflict, message)
}

func (h *Handler) contentTooLargeResponse(w http.ResponseWriter, r *http.Request) {
	message := "the request body is too large"
	h.errorResponse(w, r, http.StatusRequestEntityTooLarge, message)
}

func (h *Handler) unsupportedMediaTypeResponse(w http.ResponseWriter, r *http.Request) {
	message := "the file type is not supported for this resource"
	h.errorResponse(w, r, http.StatusUnsupportedMediaType, message)
}

func (h *Handler) coversDisabledResponse(w http.ResponseWriter, r *http.Request) {
	message := "cover uploads are not available on this server"
	h.errorResponse(w, r, http.StatusServiceUnavailable, message)
}

func (h *Handler) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	message := "rate limit exceeded"
	h.errorResponse(w, r, http.StatusTooManyRequests, message)
}

func (h *Handler) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	message := "invalid authentication credentials"
	h.errorResponse(w, r, http.StatusUnauthorized, message)
}
