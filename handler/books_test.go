package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emzola/libris/config"
	"github.com/emzola/libris/data/dto"
	"github.com/emzola/libris/internal/jsonlog"
	"github.com/emzola/libris/repository/memory"
	"github.com/emzola/libris/service"
	"github.com/jellydator/ttlcache/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeCovers struct {
	mu      sync.Mutex
	uploads map[int64]string
}

func (f *fakeCovers) Upload(_ context.Context, bookID int64, _ []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[bookID] = contentType
	return fmt.Sprintf("https://covers.example/%d", bookID), nil
}

func (f *fakeCovers) Delete(context.Context, int64) error { return nil }

type testServer struct {
	*httptest.Server
	handler *Handler
}

func newTestServer(t *testing.T, cfg config.Config, covers service.CoverStore) *testServer {
	t.Helper()
	logger := jsonlog.New(io.Discard, jsonlog.LevelOff)
	var wg sync.WaitGroup
	t.Cleanup(wg.Wait)
	svc := service.New(cfg, &wg, logger, memory.New(), covers)
	limiters := ttlcache.New(ttlcache.WithTTL[string, *rate.Limiter](time.Minute))
	h := New(cfg, logger, limiters, svc)
	ts := httptest.NewServer(h.Routes())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, handler: h}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, out
}

func decodeBook(t *testing.T, body []byte) dto.Book {
	t.Helper()
	var book dto.Book
	require.NoError(t, json.Unmarshal(body, &book))
	return book
}

func TestLendingScenario(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	code, body := ts.do(t, http.MethodPost, "/books", `{"title":"Dune","author":"Frank Herbert"}`)
	require.Equal(t, http.StatusCreated, code, string(body))
	created := decodeBook(t, body)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Available)
	assert.Nil(t, created.BorrowedBy)
	assert.Nil(t, created.Category)

	path := fmt.Sprintf("/books/%d", created.ID)

	code, body = ts.do(t, http.MethodPut, path+"/borrow", `{"borrowerName":"Alice"}`)
	require.Equal(t, http.StatusOK, code, string(body))
	borrowed := decodeBook(t, body)
	assert.False(t, borrowed.Available)
	require.NotNil(t, borrowed.BorrowedBy)
	assert.Equal(t, "Alice", *borrowed.BorrowedBy)

	code, body = ts.do(t, http.MethodPut, path+"/borrow", `{"borrowerName":"Bob"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, string(body), "book is already borrowed by: Alice")

	code, body = ts.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Alice", *decodeBook(t, body).BorrowedBy)

	code, body = ts.do(t, http.MethodPut, path+"/return", "")
	require.Equal(t, http.StatusOK, code, string(body))
	returned := decodeBook(t, body)
	assert.True(t, returned.Available)
	assert.Nil(t, returned.BorrowedBy)

	code, body = ts.do(t, http.MethodPut, path+"/return", "")
	require.Equal(t, http.StatusOK, code, string(body))
	assert.True(t, decodeBook(t, body).Available)
}

func TestCreateBookHandler(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	t.Run("location header and ignored business fields", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/books",
			strings.NewReader(`{"title":"Emma","author":"Jane Austen","category":"Fiction","available":false,"borrowedBy":"Mallory"}`))
		require.NoError(t, err)
		res, err := ts.Client().Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusCreated, res.StatusCode)
		body, _ := io.ReadAll(res.Body)
		book := decodeBook(t, body)
		assert.Equal(t, fmt.Sprintf("/books/%d", book.ID), res.Header.Get("Location"))
		assert.True(t, book.Available)
		assert.Nil(t, book.BorrowedBy)
		require.NotNil(t, book.Category)
		assert.Equal(t, "Fiction", *book.Category)
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "blank fields", body: `{"title":" ","author":""}`, want: `"title": "must be provided"`},
		{name: "short title", body: `{"title":"D","author":"Frank Herbert"}`, want: "must be between 2 and 100 characters"},
		{name: "long author", body: `{"title":"Dune","author":"` + strings.Repeat("a", 51) + `"}`, want: "must be between 2 and 50 characters"},
		{name: "empty body", body: "", want: "body must not be empty"},
		{name: "malformed", body: `{"title":`, want: "badly-formed JSON"},
		{name: "unknown key", body: `{"title":"Dune","author":"Frank Herbert","isbn":"1"}`, want: "unknown key"},
		{name: "two values", body: `{"title":"Dune","author":"Frank Herbert"}{}`, want: "single JSON value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := ts.do(t, http.MethodPost, "/books", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, string(body), tt.want)
		})
	}

	code, body := ts.do(t, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, code)
	var books []dto.Book
	require.NoError(t, json.Unmarshal(body, &books))
	assert.Len(t, books, 1, "invalid requests must not create records")
}

func TestListBooksHandler(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	code, body := ts.do(t, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(body))

	for _, b := range []string{
		`{"title":"Dune","author":"Frank Herbert","category":"Sci-Fi"}`,
		`{"title":"Emma","author":"Jane Austen","category":"Fiction"}`,
		`{"title":"Persuasion","author":"Jane Austen","category":"Fiction"}`,
	} {
		code, _ := ts.do(t, http.MethodPost, "/books", b)
		require.Equal(t, http.StatusCreated, code)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"Dune", "Emma", "Persuasion"}},
		{query: "?search=AUSTEN", want: []string{"Emma", "Persuasion"}},
		{query: "?category=Sci-Fi", want: []string{"Dune"}},
		{query: "?search=emma&category=Fiction", want: []string{"Emma"}},
		{query: "?category=Poetry", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, body := ts.do(t, http.MethodGet, "/books"+tt.query, "")
			require.Equal(t, http.StatusOK, code)
			var books []dto.Book
			require.NoError(t, json.Unmarshal(body, &books))
			titles := []string{}
			for _, b := range books {
				titles = append(titles, b.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestUpdateBookHandler(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	_, body := ts.do(t, http.MethodPost, "/books", `{"title":"Dune","author":"Frank Herbert"}`)
	book := decodeBook(t, body)
	path := fmt.Sprintf("/books/%d", book.ID)
	code, _ := ts.do(t, http.MethodPut, path+"/borrow", `{"borrowerName":"Alice"}`)
	require.Equal(t, http.StatusOK, code)

	t.Run("metadata only", func(t *testing.T) {
		code, body := ts.do(t, http.MethodPut, path,
			`{"id":99,"title":"Dune Messiah","author":"Frank Herbert","category":"Sci-Fi","available":true,"borrowedBy":null}`)
		require.Equal(t, http.StatusOK, code, string(body))
		updated := decodeBook(t, body)
		assert.Equal(t, book.ID, updated.ID)
		assert.Equal(t, "Dune Messiah", updated.Title)
		assert.False(t, updated.Available)
		require.NotNil(t, updated.BorrowedBy)
		assert.Equal(t, "Alice", *updated.BorrowedBy)
	})

	t.Run("unknown id", func(t *testing.T) {
		code, _ := ts.do(t, http.MethodPut, "/books/999", `{"title":"Dune","author":"Frank Herbert"}`)
		assert.Equal(t, http.StatusNotFound, code)
		_, body := ts.do(t, http.MethodGet, "/books", "")
		var books []dto.Book
		require.NoError(t, json.Unmarshal(body, &books))
		assert.Len(t, books, 1, "update must not create records")
	})

	t.Run("invalid input", func(t *testing.T) {
		code, _ := ts.do(t, http.MethodPut, path, `{"title":"D","author":"Frank Herbert"}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("malformed id", func(t *testing.T) {
		code, _ := ts.do(t, http.MethodPut, "/books/abc", `{"title":"Dune","author":"Frank Herbert"}`)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestBorrowBookHandler(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	_, body := ts.do(t, http.MethodPost, "/books", `{"title":"Dune","author":"Frank Herbert"}`)
	path := fmt.Sprintf("/books/%d/borrow", decodeBook(t, body).ID)

	code, body := ts.do(t, http.MethodPut, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), `"borrowerName": "must be provided"`)

	code, _ = ts.do(t, http.MethodPut, path, `{"borrowerName":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPut, "/books/404/borrow", `{"borrowerName":"Alice"}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteBookHandler(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	_, body := ts.do(t, http.MethodPost, "/books", `{"title":"Dune","author":"Frank Herbert"}`)
	path := fmt.Sprintf("/books/%d", decodeBook(t, body).ID)

	code, body := ts.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, code)
	assert.Empty(t, body)

	tests := []struct{ method, path, body string }{
		{http.MethodDelete, path, ""},
		{http.MethodGet, path, ""},
		{http.MethodPut, path, `{"title":"Dune","author":"Frank Herbert"}`},
		{http.MethodPut, path + "/borrow", `{"borrowerName":"Alice"}`},
		{http.MethodPut, path + "/return", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			code, _ := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, code)
		})
	}
}

func TestUpdateBookCoverHandler(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	upload := func(t *testing.T, ts *testServer, path string, content []byte) (int, []byte) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("cover", "cover.png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req, err := http.NewRequest(http.MethodPut, ts.URL+path, &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		res, err := ts.Client().Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		return res.StatusCode, body
	}

	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, config.Config{}, nil)
		_, body := ts.do(t, http.MethodPost, "/books", `{"title":"Dune","author":"Frank Herbert"}`)
		code, _ := upload(t, ts, fmt.Sprintf("/books/%d/cover", decodeBook(t, body).ID), png)
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("enabled", func(t *testing.T) {
		covers := &fakeCovers{uploads: make(map[int64]string)}
		ts := newTestServer(t, config.Config{}, covers)
		_, body := ts.do(t, http.MethodPost, "/books", `{"title":"Dune","author":"Frank Herbert"}`)
		book := decodeBook(t, body)
		path := fmt.Sprintf("/books/%d/cover", book.ID)

		code, body := upload(t, ts, path, png)
		require.Equal(t, http.StatusOK, code, string(body))
		assert.Equal(t, fmt.Sprintf("https://covers.example/%d", book.ID), decodeBook(t, body).CoverURL)
		assert.Equal(t, "image/png", covers.uploads[book.ID])

		code, _ = upload(t, ts, path, []byte("%PDF-1.4 not an image"))
		assert.Equal(t, http.StatusUnsupportedMediaType, code)

		code, _ = upload(t, ts, "/books/999/cover", png)
		assert.Equal(t, http.StatusNotFound, code)
	})
}
