package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"poi-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: code, Message: message})
}

// respondServiceError translates a service error into a status code and error body
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		authErr       *services.AuthError
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		forbiddenErr  *services.ForbiddenError
	)

	switch {
	case errors.As(err, &authErr):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		respondError(w, http.StatusUnauthorized, authErr.Code, authErr.Message)
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Code, validationErr.Message)
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, services.CodeNotFound, notFoundErr.Error())
	case errors.As(err, &forbiddenErr):
		respondError(w, http.StatusForbidden, services.CodeForbidden, forbiddenErr.Message)
	default:
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeJSON reads a JSON request body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// idParam parses a positive integer URL parameter
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// URLBuilder turns API paths into absolute URLs
type URLBuilder struct {
	// PublicURL overrides the scheme and host taken from the request
	PublicURL string
}

// Base returns the scheme and host the client used to reach the API
func (b URLBuilder) Base(r *http.Request) string {
	if b.PublicURL != "" {
		return strings.TrimRight(b.PublicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// Resource returns the absolute URL of apiPrefix + path
func (b URLBuilder) Resource(r *http.Request, path string) string {
	return b.Base(r) + apiPrefix + path
}

// Endpoint returns the absolute URL of the current request, query included
func (b URLBuilder) Endpoint(r *http.Request) *url.URL {
	u, err := url.Parse(b.Base(r))
	if err != nil {
		u = &url.URL{Scheme: "http", Host: r.Host}
	}
	u.Path = r.URL.Path
	u.RawQuery = r.URL.RawQuery
	return u
}
