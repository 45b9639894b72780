package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/felixge/httpsnoop"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// recoverPanic middleware recovers from panics and will always be run in the event of a panic.
func (h *Handler) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				h.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimit middleware implements IP-based rate limiting. Each client IP gets its own
// token bucket, kept in the limiters cache and dropped once the client goes quiet.
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.config.Limiter.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			h.serverErrorResponse(w, r, err)
			return
		}
		// Get touches the item, so an active client is never expired.
		mu.Lock()
		item := h.limiters.Get(ip)
		if item == nil {
			item = h.limiters.Set(ip, rate.NewLimiter(rate.Limit(h.config.Limiter.RPS), h.config.Limiter.Burst), ttlcache.DefaultTTL)
		}
		mu.Unlock()
		if !item.Value().Allow() {
			h.rateLimitExceededResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// enableCORS middleware relaxes the same-origin policy for trusted origins.
func (h *Handler) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")
		origin := r.Header.Get("Origin")
		if origin != "" {
			for i := range h.config.Cors.TrustedOrigins {
				if origin == h.config.Cors.TrustedOrigins[i] {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
						w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, POST, PUT, DELETE")
						w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
						w.WriteHeader(http.StatusOK)
						return
					}
					break
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// logRequest middleware writes one access log entry per request.
func (h *Handler) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		h.logger.PrintInfo("request", map[string]string{
			"request_method": r.Method,
			"request_url":    r.URL.String(),
			"remote_addr":    r.RemoteAddr,
			"status":         strconv.Itoa(m.Code),
			"duration":       m.Duration.String(),
		})
	})
}

// metrics middleware exposes request-level metrics.
func (h *Handler) metrics(next http.Handler) http.Handler {
	if !h.config.Metrics.Enabled {
		return next
	}
	totalRequestsReceived := expvarInt("total_requests_received")
	totalResponsesSent := expvarInt("total_responses_sent")
	totalProcessingTimeMicrosecond := expvarInt("total_processing_time_μs")
	totalResponsesSentByStatus := expvarMap("total_responses_sent_by_status")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		totalRequestsReceived.Add(1)
		metrics := httpsnoop.CaptureMetrics(next, w, r)
		totalResponsesSent.Add(1)
		totalProcessingTimeMicrosecond.Add(metrics.Duration.Microseconds())
		totalResponsesSentByStatus.Add(strconv.Itoa(metrics.Code), 1)
	})
}

// expvar panics on duplicate names, and Routes may be built more than once per process.
func expvarInt(name string) *expvar.Int {
	if v, ok := expvar.Get(name).(*expvar.Int); ok {
		return v
	}
	return expvar.NewInt(name)
}

func expvarMap(name string) *expvar.Map {
	if v, ok := expvar.Get(name).(*expvar.Map); ok {
		return v
	}
	return expvar.NewMap(name)
}

// basicAuth middleware implements basic authentication for the /debug/vars endpoint.
// The configured password is a bcrypt hash; with no hash configured every request is refused.
func (h *Handler) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if ok && h.config.BasicAuth.PasswordHash != "" {
			usernameHash := sha256.Sum256([]byte(username))
			expectedUsernameHash := sha256.Sum256([]byte(h.config.BasicAuth.Username))
			usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1
			passwordMatch := bcrypt.CompareHashAndPassword([]byte(h.config.BasicAuth.PasswordHash), []byte(password)) == nil
			if usernameMatch && passwordMatch {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
		h.invalidCredentialsResponse(w, r)
	})
}
