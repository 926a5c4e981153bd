package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cantus/internal/auth"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type ctxKeyRequestID struct{}

// RequestID ensures each request has a request ID.
// It reads X-Request-ID if provided; otherwise, it generates a UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, rid)
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the ID set by [RequestID], or "".
func RequestIDFromContext(ctx context.Context) string {
	rid, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return rid
}

// Logger writes one line per request.
func Logger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", RequestIDFromContext(r.Context()),
			)
		})
	}
}

// Recoverer turns a panic into a 500 response and logs the stack.
func Recoverer(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					"err", rec,
					"path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
					"stack", string(debug.Stack()),
				)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// IPLimiter keeps one token bucket per client address.
type IPLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	maxVisitors = 4096
	visitorIdle = 10 * time.Minute
)

// NewIPLimiter allows perSecond requests per address with the given burst (at least 1).
func NewIPLimiter(perSecond float64, burst int) *IPLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*visitor),
	}
}

// Allow reports whether a request from ip may proceed now.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= maxVisitors {
			l.sweep(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *IPLimiter) sweep(now time.Time) {
	for ip, v := range l.limiters {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(l.limiters, ip)
		}
	}
}

// RateLimit answers 429 once the caller's bucket is empty.
func RateLimit(l *IPLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Authenticate loads the profile of the request's session into the context.
//
// Requests without a valid session continue anonymously.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Read(r)
		if err != nil {
			if errors.Is(err, shared.ErrNotAuthenticated) {
				next.ServeHTTP(w, r)
				return
			}
			s.writeError(w, r, err)
			return
		}

		profile, err := s.profiles.Get(r.Context(), sess.ProfileID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithProfile(r.Context(), profile)))
	})
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ProfileFromContext(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: shared.ErrNotAuthenticated.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects anonymous requests with 401 and profiles outside roles with 403.
func RequireRole(roles ...models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.ProfileFromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: shared.ErrNotAuthenticated.Error()})
				return
			}
			if !p.Role.In(roles...) {
				msg := fmt.Sprintf("%s: role %s may not do this", shared.ErrForbidden, p.Role)
				writeJSON(w, http.StatusForbidden, errorBody{Error: msg})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
