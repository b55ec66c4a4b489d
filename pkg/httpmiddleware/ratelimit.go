package httpmiddleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xenking/eshop-basket/internal/identity"
	"github.com/xenking/eshop-basket/pkg/ratelimit"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(*http.Request) string

// RateLimit enforces l per key. Rejected requests get 429 Too Many Requests
// with a Retry-After header. Every response carries X-RateLimit-Limit and
// X-RateLimit-Remaining. A nil keyFunc keys on the signed-in user, falling
// back to the client IP.
func RateLimit(l *ratelimit.Limiter, keyFunc KeyFunc) Middleware {
	if keyFunc == nil {
		keyFunc = UserOrClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := l.Allow(keyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserOrClientIP keys requests by the X-User-Id header, or by ClientIP for
// anonymous callers.
func UserOrClientIP(r *http.Request) string {
	if id := r.Header.Get(identity.HeaderUserID); id != "" {
		return "user:" + id
	}
	return "ip:" + ClientIP(r)
}

// ClientIP extracts the client IP from the request, checking
// X-Forwarded-For first, then X-Real-IP, then falling back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For may contain a comma-separated list; use the first.
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
