package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/shelfwiseapp/shelfwise-server/internal/http/response"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/ratelimit"
)

// RateLimitMiddleware limits /api requests per acting user, or per client
// IP for anonymous requests. Returns 429 Too Many Requests when the limit
// is exceeded.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			scope, key := "ip", getClientIP(r)
			if userID, err := GetUserID(r.Context()); err == nil {
				scope, key = "user", userID
			}

			if !limiter.Allow(scope + ":" + key) {
				if m != nil {
					m.HTTPRequestsRejected.WithLabelValues(scope).Inc()
				}
				logger.Warn("rate limit exceeded",
					"scope", scope,
					"key", key,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP returns the request's client address without the port.
// middleware.RealIP has already applied X-Forwarded-For / X-Real-IP.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
