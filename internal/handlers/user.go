package handlers

import (
	"fmt"
	"net/http"

	"poi-backend/internal/middleware"
	"poi-backend/internal/models"
	"poi-backend/internal/pagination"
	"poi-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserResponse is the public representation of a user
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	SelfURL  string `json:"self_url"`
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
	urls        URLBuilder
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, urls URLBuilder) *UserHandler {
	return &UserHandler{
		userService: userService,
		urls:        urls,
	}
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("User created")

	resp := h.toResponse(r, user)
	w.Header().Set("Location", resp.SelfURL)
	respondJSON(w, http.StatusCreated, resp)
}

// GetUser handles GET /api/v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusNotFound, services.CodeNotFound, err.Error())
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toResponse(r, user))
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := pagination.ParseParams(r.URL.Query())

	users, total, err := h.userService.List(r.Context(), params)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	items := make([]UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, h.toResponse(r, user))
	}
	respondJSON(w, http.StatusOK, pagination.NewPage(items, total, params, h.urls.Endpoint(r)))
}

// UpdateUser handles PUT /api/v1/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusNotFound, services.CodeNotFound, err.Error())
		return
	}

	var req services.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	user, err := h.userService.Update(r.Context(), middleware.GetUser(r.Context()), id, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().Int64("user_id", user.ID).Msg("User updated")
	respondJSON(w, http.StatusOK, h.toResponse(r, user))
}

func (h *UserHandler) toResponse(r *http.Request, user *models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		SelfURL:  h.urls.Resource(r, fmt.Sprintf("/users/%d", user.ID)),
	}
}
