package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/accounts/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

// PrincipalContextKey is the key for storing the authenticated user in context
const PrincipalContextKey contextKey = "principal"

// UserFinder loads the user a token belongs to
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticate resolves the bearer token into the current user. Requests without a usable
// token pass through anonymously; handlers decide whether a principal is required.
func Authenticate(tm *TokenManager, users UserFinder, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				logger.Debug("ignoring invalid bearer token", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				logger.Debug("token user not found",
					slog.Int64("user_id", claims.UserID),
					slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// WithPrincipal returns a copy of ctx carrying user
func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, user)
}

// PrincipalFromContext returns the authenticated user, or nil
func PrincipalFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(PrincipalContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
