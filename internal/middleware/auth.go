package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AadeshhhGavhane/c3/internal/crypto"
	"github.com/AadeshhhGavhane/c3/internal/model"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	emailKey  contextKey = "email"
)

// UserLookup confirms that a token's subject still exists.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// JWTAuth returns middleware that validates a Bearer token from the Authorization
// header and rejects tokens whose user no longer exists.
func JWTAuth(secret string, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "No token provided. Authorization header required.")
				return
			}

			claims, err := crypto.ValidateToken(token, secret)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if _, err := users.GetByID(r.Context(), claims.UserID); err != nil {
				if errors.Is(err, model.ErrUserNotFound) {
					writeJSONError(w, http.StatusUnauthorized, "User not found. Token invalid.")
					return
				}
				slog.ErrorContext(r.Context(), "token user lookup failed", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "Authentication error")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, emailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// EmailFromContext extracts the authenticated email from the request context.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
