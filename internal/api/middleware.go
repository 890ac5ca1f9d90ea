// internal/api/middleware.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguedesk/internal/api/apiutil"
	"github.com/codr1/leaguedesk/internal/api/auth"
	"github.com/codr1/leaguedesk/internal/api/authz"
)

type Middleware func(http.Handler) http.Handler

// ChainMiddleware wraps h so that the last middleware listed runs first.
func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

type requestIDKey struct{}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		logger := log.With().Str("request_id", requestID).Logger()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = logger.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		event := log.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.Status()).
			Dur("duration", time.Since(start))
		if user := authz.UserFromContext(r.Context()); user != nil {
			event = event.Int64("user_id", user.ID)
		}
		event.Msg("Request completed")
	})
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Ctx(r.Context()).Error().
					Err(fmt.Errorf("%v", err)).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				if isAPIPath(r.URL.Path) {
					apiutil.WriteErrorJSON(w, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// WithAuth resolves the session and stores the user in the request context.
// Requests without a usable session continue anonymously.
func WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.UserFromRequest(w, r)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load auth session")
			next.ServeHTTP(w, r)
			return
		}

		if user != nil {
			r = r.WithContext(authz.ContextWithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// WithPageGate applies authz.Decide to page requests. JSON routes do their
// own role checks and answer 401/403 instead of redirecting.
func WithPageGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isGatedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		user := authz.UserFromContext(r.Context())
		decision := authz.Decide(user, r.URL.Path)
		if !decision.Allow {
			event := log.Ctx(r.Context()).Debug().
				Str("path", r.URL.Path).
				Str("redirect", decision.Redirect)
			if user != nil {
				event = event.Int64("user_id", user.ID)
			}
			event.Msg("Page gate redirect")
			http.Redirect(w, r, decision.Redirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func isGatedPath(path string) bool {
	switch {
	case isAPIPath(path):
		return false
	case path == "/health", path == "/favicon.ico":
		return false
	case strings.HasPrefix(path, "/static/"):
		return false
	default:
		return true
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}
