package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/paper-nest/backend/internal/auth"
	"github.com/paper-nest/backend/internal/models"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "user_id"

// AuthConfig enables bearer-token and API-key checks. With neither a secret
// nor any key hashes configured, requests pass through unauthenticated.
type AuthConfig struct {
	JWTSecret    string
	APIKeyHashes []string
}

func (c AuthConfig) Enabled() bool {
	return c.JWTSecret != "" || len(c.APIKeyHashes) > 0
}

// UserID returns the authenticated caller, if any.
func UserID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok
}

func Auth(cfg AuthConfig, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := r.Header.Get("X-API-Key"); key != "" && len(cfg.APIKeyHashes) > 0 {
				if err := auth.CheckAPIKey(cfg.APIKeyHashes, key); err == nil {
					ctx := context.WithValue(r.Context(), userIDKey, "api-key")
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				log.Debug("api key rejected", zap.String("path", r.URL.Path))
				unauthorized(w, "Invalid API key")
				return
			}

			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || cfg.JWTSecret == "" {
				unauthorized(w, "Authentication required")
				return
			}

			userID, err := auth.ParseToken([]byte(cfg.JWTSecret), strings.TrimSpace(raw))
			if err != nil {
				log.Debug("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
