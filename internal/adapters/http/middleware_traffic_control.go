package httpadapter

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

func rateLimitMiddleware(next http.Handler, rps, burst int) http.Handler {
	if burst < rps {
		burst = rps
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// backpressureMiddleware caps concurrent requests. A request that cannot
// claim a slot within wait gets 503 instead of queueing unboundedly.
func backpressureMiddleware(next http.Handler, maxInFlight int, wait time.Duration) http.Handler {
	slots := make(chan struct{}, maxInFlight)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case slots <- struct{}{}:
			defer func() { <-slots }()
			next.ServeHTTP(w, r)
		case <-timer.C:
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "server is overloaded, retry later",
			})
		case <-r.Context().Done():
		}
	})
}
