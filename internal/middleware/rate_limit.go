package middleware

import (
	"math"
	"net/http"

	"github.com/photocard/photocard-api/internal/pkg/logger"
	"github.com/photocard/photocard-api/internal/pkg/ratelimit"
	"github.com/photocard/photocard-api/internal/pkg/response"
)

// RateLimitByIP rejects callers that exceed limiter with 429 and Retry-After.
// Limiter failures let the request through.
func RateLimitByIP(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				logger.LogWarn(r.Context(), "rate limiter unavailable", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				seconds := int64(math.Ceil(retryAfter.Seconds()))
				response.RetryLater(w, seconds, "RATE_LIMIT_EXCEEDED", "Too many requests, please try again later", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
