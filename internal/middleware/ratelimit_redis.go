package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/audit"
	apperrors "github.com/peerpresence/server-go/internal/errors"
)

const rateLimitWindow = time.Minute

// Limiter is the sliding-window check shared with the service layer.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Time)
}

// RateLimitMiddleware limits requests per person, or per client IP for
// anonymous requests, across all instances.
type RateLimitMiddleware struct {
	limiter Limiter
	perMin  int
}

// NewRateLimitMiddleware returns a pass-through middleware when perMin is
// zero.
func NewRateLimitMiddleware(limiter Limiter, perMin int) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, perMin: perMin}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.perMin <= 0 || m.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "ip:" + clientIP(r)
		if id := PersonID(r.Context()); id != "" {
			key = "person:" + id
		}

		allowed, resetAt := m.limiter.Allow(r.Context(), "http:"+key, m.perMin, rateLimitWindow)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.perMin))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			log.Warn().Str("key", key).Msg("rate limit exceeded")
			audit.LogFromRequest(r, audit.Event{
				Type:     audit.EventRateLimitExceed,
				PersonID: PersonID(r.Context()),
			})
			retry := int(time.Until(resetAt).Seconds()) + 1
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
