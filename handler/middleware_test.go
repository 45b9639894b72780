package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emzola/libris/config"
	"github.com/emzola/libris/internal/jsonlog"
	"github.com/jellydator/ttlcache/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

func newBareHandler(cfg config.Config) *Handler {
	limiters := ttlcache.New(ttlcache.WithTTL[string, *rate.Limiter](time.Minute))
	return New(cfg, jsonlog.New(io.Discard, jsonlog.LevelOff), limiters, nil)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRecoverPanic(t *testing.T) {
	h := newBareHandler(config.Config{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	rr := httptest.NewRecorder()
	h.recoverPanic(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
	assert.Contains(t, rr.Body.String(), "the server encountered a problem")
}

func TestRateLimit(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		cfg := config.Config{}
		cfg.Limiter.Enabled = true
		cfg.Limiter.RPS = 1
		cfg.Limiter.Burst = 2
		mw := newBareHandler(cfg).rateLimit(okHandler)

		codes := []int{}
		for i := 0; i < 3; i++ {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/books", nil)
			req.RemoteAddr = "192.0.2.1:1234"
			mw.ServeHTTP(rr, req)
			codes = append(codes, rr.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		mw.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, "limits are kept per client")
	})

	t.Run("disabled", func(t *testing.T) {
		mw := newBareHandler(config.Config{}).rateLimit(okHandler)
		for i := 0; i < 10; i++ {
			rr := httptest.NewRecorder()
			mw.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/books", nil))
			require.Equal(t, http.StatusOK, rr.Code)
		}
	})
}

func TestEnableCORS(t *testing.T) {
	cfg := config.Config{}
	cfg.Cors.TrustedOrigins = []string{"https://libris.example"}
	mw := newBareHandler(cfg).enableCORS(okHandler)

	tests := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		wantOrigin  string
		wantMethods string
	}{
		{name: "trusted", method: http.MethodGet, origin: "https://libris.example", wantOrigin: "https://libris.example"},
		{name: "untrusted", method: http.MethodGet, origin: "https://evil.example"},
		{name: "no origin", method: http.MethodGet},
		{name: "preflight", method: http.MethodOptions, origin: "https://libris.example", preflight: true,
			wantOrigin: "https://libris.example", wantMethods: "OPTIONS, POST, PUT, DELETE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/books", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			rr := httptest.NewRecorder()
			mw.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMethods, rr.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, []string{"Origin", "Access-Control-Request-Method"}, rr.Header().Values("Vary"))
		})
	}
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := config.Config{}
	cfg.BasicAuth.Username = "admin"
	cfg.BasicAuth.PasswordHash = string(hash)
	mw := newBareHandler(cfg).basicAuth(okHandler)

	tests := []struct {
		name     string
		user     string
		password string
		noAuth   bool
		want     int
	}{
		{name: "valid", user: "admin", password: "s3cret", want: http.StatusOK},
		{name: "wrong password", user: "admin", password: "guess", want: http.StatusUnauthorized},
		{name: "wrong user", user: "root", password: "s3cret", want: http.StatusUnauthorized},
		{name: "missing", noAuth: true, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
			if !tt.noAuth {
				req.SetBasicAuth(tt.user, tt.password)
			}
			rr := httptest.NewRecorder()
			mw.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRoutesFallbacks(t *testing.T) {
	cfg := config.Config{}
	cfg.Metrics.Enabled = true
	routes := newBareHandler(cfg).Routes()

	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/shelves", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/books", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Allow"))

	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status": "available"`)
}
