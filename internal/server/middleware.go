package server

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/tabula/internal/auth"
)

const (
	limiterCacheSize = 4096
	limiterIdleTTL   = 10 * time.Minute
)

// RateLimiter throttles requests per client IP with a token bucket.
// Idle buckets are evicted after limiterIdleTTL.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex // makes get-or-create of a client bucket atomic
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// A non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterIdleTTL),
	}
}

// Allow reports whether a request from client may proceed.
func (l *RateLimiter) Allow(client string) bool {
	if l.limit <= 0 {
		return true
	}
	return l.bucket(client).Allow()
}

func (l *RateLimiter) bucket(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters.Get(client)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(client, lim)
	}
	return lim
}

// Middleware rejects requests over the limit with a 429 problem.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			RateLimited(w, "request rate exceeded, retry shortly", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequireAdmin wraps next so that only requests carrying a valid admin
// bearer token reach it. The verified claims are stored on the context.
func RequireAdmin(a *auth.Authenticator, logger *zap.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a == nil {
			Unauthorized(w, "authentication is not configured", r.URL.Path)
			return
		}
		claims, err := a.Authorize(r)
		switch {
		case errors.Is(err, auth.ErrForbidden):
			Forbidden(w, "admin role required", r.URL.Path)
			return
		case err != nil:
			logger.Debug("rejected bearer token", zap.String("path", r.URL.Path), zap.Error(err))
			Unauthorized(w, "missing or invalid bearer token", r.URL.Path)
			return
		}
		next(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	}
}
