package site

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sebasite/internal/logging"
	"sebasite/internal/services"
	"sebasite/internal/session"
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with a correlation id, reusing a well-formed
// inbound header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// observe logs each request at debug level and counts it by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		s.metrics.observeRequest(route, r.Method, rec.status)
		logging.WithContext(r.Context(), s.logger).Debug("request served",
			logging.String("method", r.Method),
			logging.String("route", route),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(start)))
	})
}

// withSession makes the session available to handlers.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), s.session)))
	})
}

// Cookies set by the API.
const (
	adminCookie    = "sebasite_admin"
	languageCookie = "sebasite_lang"
)

// requireAdmin admits requests carrying a live session token, either as the
// admin cookie or as a bearer token, or the configured API token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiTokenOK(r) || s.session.Authenticated(r.Context(), sessionToken(r)) {
			next.ServeHTTP(w, r)
			return
		}
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *Server) apiTokenOK(r *http.Request) bool {
	if s.apiToken == "" {
		return false
	}
	token, ok := bearer(r)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) == 1
}

// sessionToken returns the caller's session credential. The cookie wins over
// the Authorization header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(adminCookie); err == nil && c.Value != "" {
		return c.Value
	}
	token, _ := bearer(r)
	return token
}

func bearer(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return strings.TrimSpace(token), ok
}
