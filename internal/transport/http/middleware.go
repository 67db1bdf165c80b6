package http

import (
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// RateLimiter returns a middleware enforcing a global request rate across
// the license endpoints. Validation is cheap, but unbounded anonymous
// probing of the validator is still worth throttling.
func RateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				render.Render(w, r, ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
