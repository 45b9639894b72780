package handler

import (
	"expvar"
	"net/http"

	"github.com/julienschmidt/httprouter"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func (h *Handler) Routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(h.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(h.methodNotAllowed)

	router.HandlerFunc(http.MethodGet, "/books", h.listBooksHandler)
	router.HandlerFunc(http.MethodPost, "/books", h.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/books/:bookId", h.showBookHandler)
	router.HandlerFunc(http.MethodPut, "/books/:bookId", h.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/books/:bookId", h.deleteBookHandler)
	router.HandlerFunc(http.MethodPut, "/books/:bookId/borrow", h.borrowBookHandler)
	router.HandlerFunc(http.MethodPut, "/books/:bookId/return", h.returnBookHandler)
	router.HandlerFunc(http.MethodPut, "/books/:bookId/cover", h.updateBookCoverHandler)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", h.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/debug/vars", h.basicAuth(expvar.Handler().ServeHTTP))

	// Swagger routes
	router.HandlerFunc(http.MethodGet, "/docs/*any", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	return h.metrics(h.recoverPanic(h.enableCORS(h.rateLimit(h.logRequest(router)))))
}
