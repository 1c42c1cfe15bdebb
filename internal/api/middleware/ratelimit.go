package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/mydscvr/backend/internal/infrastructure/observability"
	"github.com/mydscvr/backend/pkg/ratelimit"
)

// ClientIP identifies the caller for rate limiting: the first
// X-Forwarded-For entry, then X-Real-IP, then the connection address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}

// RateLimit rejects callers that exceed limiter's window with 429
func RateLimit(limiter *ratelimit.Limiter, metrics *observability.Metrics, promMetrics *HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			client := ClientIP(r)

			res, err := limiter.Check(ctx, client)
			if err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).
					Str("limiter", limiter.Name()).
					Str("client", client).
					Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))

			if !res.Allowed {
				retryAfter := res.RetryAfterSeconds()
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("Content-Type", "application/json")

				observability.RecordRateLimitReject(ctx, metrics, limiter.Name())
				promMetrics.observeRejection(limiter.Name())
				observability.LoggerFromContext(ctx).Info().
					Str("limiter", limiter.Name()).
					Str("client", client).
					Int("retry_after", retryAfter).
					Msg("rate limit exceeded")

				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error":       "rate limit exceeded",
					"retry_after": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
