package middleware

import (
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/accounts/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitByIP creates a middleware that allows requestsPerMinute per client IP
func RateLimitByIP(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteJSON(w, http.StatusTooManyRequests, pkghttp.StatusResponse{
				Status:  http.StatusTooManyRequests,
				Message: "Rate limit exceeded",
			})
		}),
	)
}
