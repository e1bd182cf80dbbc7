package routes

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BradenHooton/accounts/internal/auth"
	"github.com/BradenHooton/accounts/internal/handlers"
	"github.com/BradenHooton/accounts/internal/middleware"
	"github.com/BradenHooton/accounts/internal/upload"
	pkghttp "github.com/BradenHooton/accounts/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// RegisterRoutes registers the /api routes
func RegisterRoutes(
	router chi.Router,
	userHandler *handlers.UserHandler,
	authHandler *handlers.AuthHandler,
	tokenManager *auth.TokenManager,
	users auth.UserFinder,
	rateLimitPerMinute int,
	logger *slog.Logger,
) {
	// One limiter shared by the credential endpoints
	limited := middleware.RateLimitByIP(rateLimitPerMinute)
	authenticate := auth.Authenticate(tokenManager, users, logger)

	router.Route("/api", func(r chi.Router) {
		r.Get("/users", userHandler.ListUsers)
		r.Get("/users/{page}", userHandler.ListUsers)
		r.Get("/users/{page}/{per_page}", userHandler.ListUsers)

		r.With(limited).Post("/register", userHandler.Register)
		r.Get("/edit/{id}", userHandler.EditUser)
		r.With(authenticate).Post("/update/{id}", userHandler.UpdateUser)
		r.Post("/uploadFile", userHandler.UploadFile)

		r.With(limited).Post("/login", authHandler.Login)
		r.With(limited, authenticate).Post("/verify-password", userHandler.VerifyPassword)
	})
}

// RegisterSystemRoutes registers health, metrics and the public avatar directory
func RegisterSystemRoutes(router chi.Router, health HealthChecker, uploadDir string) {
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := health.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "down"})
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, healthResponse{Status: "healthy", Database: "up"})
	})

	router.Handle("/metrics", promhttp.Handler())

	prefix := "/" + upload.PublicPath
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(uploadDir)))
	router.Get(prefix+"*", func(w http.ResponseWriter, r *http.Request) {
		// No directory listings
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
