package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	domainerrors "github.com/Clark-Hu/movielists/internal/errors"
	"github.com/Clark-Hu/movielists/internal/identity"
)

// requestLogger logs one line per request once the response is written.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// authenticate resolves the caller from a bearer token. Requests without an
// Authorization header continue anonymously; a header that does not verify is rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) || s.tokens == nil {
			s.respondDomainError(w, r, domainerrors.Unauthenticated("invalid authorization header format"))
			return
		}

		id, err := s.tokens.Verify(strings.TrimSpace(strings.TrimPrefix(header, prefix)))
		if err != nil {
			s.respondDomainError(w, r, domainerrors.Unauthenticated("invalid or expired token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}

// rateLimit throttles mutating requests per caller; anonymous callers are keyed by address.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "user:" + identity.UserID(r.Context())
		if key == "user:" {
			key = "addr:" + r.RemoteAddr
		}
		if !s.limiter.Allow(key) {
			w.Header().Set("Retry-After", "1")
			s.respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
