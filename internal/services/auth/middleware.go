// filepath: internal/services/auth/middleware.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"backuphub/internal/logging"
	"backuphub/internal/models"
	"backuphub/internal/services"
	"backuphub/internal/shared"
)

type contextKey int

const (
	userKey contextKey = iota
	tokenKey
)

// writeError sends a JSON error response.
func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Middleware provides API token authentication and permission checks.
type Middleware struct {
	User services.UserService
}

// NewMiddleware creates a new instance of Middleware.
func NewMiddleware(user services.UserService) *Middleware {
	return &Middleware{User: user}
}

// AuthMiddleware resolves the Bearer token and stores its owner and
// permissions in the request context.
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="backuphub"`)
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		secret, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		user, token, err := m.User.ResolveToken(strings.TrimSpace(secret))
		if err != nil {
			logging.Log.Warnf("AuthMiddleware: Rejected token: %v", err)
			if errors.Is(err, shared.ErrUnauthorized) && strings.Contains(err.Error(), "expired") {
				writeError(w, http.StatusUnauthorized, "Token expired")
			} else {
				writeError(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PermissionMiddleware rejects requests whose token lacks the named permission.
func (m *Middleware) PermissionMiddleware(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, token := FromContext(r.Context())
			if user == nil || token == nil {
				logging.Log.Warnf("PermissionMiddleware: No token found in context for %s", r.URL.Path)
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			if !token.Permissions.Has(permission) {
				logging.Log.Warnf("PermissionMiddleware: Access DENIED for token '%s' of '%s'. Missing permission '%s' for %s",
					token.Name, user.Username, permission, r.URL.Path)
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FromContext returns the authenticated user and token, or nils.
func FromContext(ctx context.Context) (*models.User, *models.TokenInfo) {
	user, _ := ctx.Value(userKey).(*models.User)
	token, _ := ctx.Value(tokenKey).(*models.TokenInfo)
	return user, token
}

// WithIdentity returns ctx carrying user and token, as AuthMiddleware does.
func WithIdentity(ctx context.Context, user *models.User, token *models.TokenInfo) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}
