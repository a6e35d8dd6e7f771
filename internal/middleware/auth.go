package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-identity/internal/model"
	"go-identity/internal/policy"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
	RequireActive(user model.User) (model.User, error)
}

type contextKey string

const currentUserContextKey contextKey = "current_user"

type AuthMiddleware struct {
	auth authenticator
}

func NewAuthMiddleware(auth authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth runs the authentication pipeline: extract the bearer
// credential, resolve it to a user, then gate on the active flag. A request
// carrying no credential at all fails with a distinct code so clients can
// tell "log in first" apart from "your token is bad".
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeDenied(w, "MISSING_CREDENTIALS", "authorization credential is required", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(header[len("bearer "):])
		user, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeDenied(w, "UNAUTHORIZED", "invalid or expired token", http.StatusUnauthorized)
			return
		}

		user, err = m.auth.RequireActive(user)
		if err != nil {
			writeDenied(w, "INACTIVE_ACCOUNT", "account is inactive", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), currentUserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin consults the access policy for routes that manage arbitrary
// users. It must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeDenied(w, "MISSING_CREDENTIALS", "authentication required", http.StatusUnauthorized)
			return
		}

		if err := policy.RequireAdmin(user); err != nil {
			writeDenied(w, "FORBIDDEN", "insufficient permissions", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(currentUserContextKey).(model.User)
	return user, ok
}

func writeDenied(w http.ResponseWriter, code string, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
