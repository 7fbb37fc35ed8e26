package middleware

import (
	"context"
	"net/http"
	"strings"

	"medimind/internal/auth"
)

type contextKey string

const UserContextKey contextKey = "user"

// UserContext holds the authenticated identity in the request context
type UserContext struct {
	UserID   int64
	Username string
}

// AuthMiddleware validates JWT tokens and adds user context
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
}

func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAuth ensures the request carries a valid session token
func (am *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := am.getToken(r)
		if token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := am.jwtManager.ValidateToken(token)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userCtx := &UserContext{
			UserID:   claims.UserID,
			Username: claims.Username,
		}
		ctx := context.WithValue(r.Context(), UserContextKey, userCtx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getToken extracts the JWT from the auth cookie or Authorization header
func (am *AuthMiddleware) getToken(r *http.Request) string {
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	return ""
}

// GetUserID retrieves the authenticated user ID from the request context
func GetUserID(ctx context.Context) int64 {
	if userCtx, ok := ctx.Value(UserContextKey).(*UserContext); ok {
		return userCtx.UserID
	}
	return 0
}

// GetUsername retrieves the authenticated username from the request context
func GetUsername(ctx context.Context) string {
	if userCtx, ok := ctx.Value(UserContextKey).(*UserContext); ok {
		return userCtx.Username
	}
	return ""
}
