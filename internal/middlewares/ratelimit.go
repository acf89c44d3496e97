package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"edgeguard/internal/cache"
	apierrors "edgeguard/internal/errors"
	"edgeguard/internal/helpers"

	"go.uber.org/zap"
)

// RateLimit throttles requests per client address. Cache failures let the request through.
func RateLimit(c cache.ICache, requestsPerMinute int) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if requestsPerMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			wait, err := c.Allow(r.Context(), clientAddress(r), requestsPerMinute)
			if err != nil {
				GetLogger(r).Warn("Rate limit lookup failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
				helpers.RespondWithError(w, http.StatusTooManyRequests, apierrors.MsgTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(wait time.Duration) int {
	return max(int(math.Ceil(wait.Seconds())), 1)
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
