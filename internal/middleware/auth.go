package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"bookkeeping/internal/auth"
	"bookkeeping/internal/logger"
)

type contextKey string

const userIDKey contextKey = "user_id"

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Auth requires a bearer token and puts its subject on the request context and logger.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "missing authorization header")
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "invalid authorization header")
				return
			}
			claims, err := auth.ParseToken(secret, strings.TrimSpace(parts[1]))
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			ctx := WithUserID(r.Context(), claims.UserID)
			log := logger.FromContext(ctx).With().Str("user_id", claims.UserID).Logger()
			ctx = logger.WithContext(ctx, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
