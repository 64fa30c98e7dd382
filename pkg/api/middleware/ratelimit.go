package middleware

import (
	"net"
	"net/http"

	"github.com/cumulo-cloud/cumulo/internal/ratelimit"
)

// RateLimit throttles requests per client IP using the given limiter.
// Over-limit requests get 429 Too Many Requests. Pair with chi's RealIP
// middleware so the key reflects the actual client behind proxies.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}

			if !limiter.Allow(key) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
