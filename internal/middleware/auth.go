package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"poi-backend/internal/models"
	"poi-backend/internal/services"

	"github.com/rs/zerolog/log"
)

type contextKey string

const userKey contextKey = "user"

// AuthMiddleware rejects requests without a valid bearer token and stores the
// authenticated user in the request context
func AuthMiddleware(tokenService *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				respondUnauthorized(w, services.ErrInvalidToken.Code, "Bearer authorization header required")
				return
			}

			user, err := tokenService.Validate(r.Context(), token)
			if err != nil {
				var authErr *services.AuthError
				if errors.As(err, &authErr) {
					respondUnauthorized(w, authErr.Code, authErr.Message)
					return
				}
				log.Error().Err(err).Msg("Failed to validate token")
				respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUser extracts the authenticated user from context
func GetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func respondUnauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	respondError(w, http.StatusUnauthorized, code, message)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
