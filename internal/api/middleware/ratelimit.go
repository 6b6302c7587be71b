package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Rrens/stackbot/internal/api/response"
	"github.com/rs/zerolog/log"
)

// Limiter decides whether the caller identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error)
}

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	limiter Limiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit applies rate limiting based on the client address. Requests pass
// when the limiter itself fails.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, reset, err := m.limiter.Allow(r.Context(), clientIP(r))
		if err != nil {
			log.Warn().Err(err).Msg("Rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", reset.UTC().Format(time.RFC3339))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(reset).Seconds())+1))
			response.Error(w, http.StatusTooManyRequests, "rate limit exceeded", "too many generation requests, try again later")
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
