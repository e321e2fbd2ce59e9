package handlers

import (
	"errors"
	"net/http"

	"poi-backend/internal/middleware"
	"poi-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// TokenHandler handles bearer token issuance and revocation
type TokenHandler struct {
	tokenService *services.TokenService
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokenService *services.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: tokenService}
}

// CreateToken handles POST /api/v1/tokens with HTTP Basic credentials
func (h *TokenHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="api"`)
		respondError(w, http.StatusUnauthorized, services.CodeInvalidCredentials, "Basic authorization header required")
		return
	}

	issued, err := h.tokenService.Issue(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Info().Str("username", username).Msg("Rejected token request")
			w.Header().Set("WWW-Authenticate", `Basic realm="api"`)
			respondError(w, http.StatusUnauthorized, services.CodeInvalidCredentials, err.Error())
			return
		}
		respondServiceError(w, r, err)
		return
	}

	log.Info().Str("username", username).Time("expires_at", issued.ExpiresAt).Msg("Token issued")
	respondJSON(w, http.StatusOK, issued)
}

// RevokeToken handles DELETE /api/v1/tokens
func (h *TokenHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.tokenService.Revoke(r.Context(), user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().Int64("user_id", user.ID).Msg("Token revoked")
	w.WriteHeader(http.StatusNoContent)
}
