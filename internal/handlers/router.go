package handlers

import (
	"context"
	"net/http"

	"poi-backend/internal/middleware"
	"poi-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const apiPrefix = "/api/v1"

// HealthCheck reports whether the backing store is reachable
type HealthCheck func(ctx context.Context) error

// RouterDeps collects the services the HTTP layer delegates to
type RouterDeps struct {
	UserService  *services.UserService
	TokenService *services.TokenService
	POIService   *services.POIService
	WSHub        *services.WSHub
	URLs         URLBuilder
	Health       HealthCheck
}

// NewRouter builds the HTTP routes
func NewRouter(deps RouterDeps) http.Handler {
	userHandler := NewUserHandler(deps.UserService, deps.URLs)
	tokenHandler := NewTokenHandler(deps.TokenService)
	poiHandler := NewPOIHandler(deps.POIService, deps.WSHub, deps.URLs)
	wsHandler := NewWebSocketHandler(deps.WSHub, deps.TokenService)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/health", healthHandler(deps.Health))

	r.Route(apiPrefix, func(r chi.Router) {
		// Public routes
		r.Post("/tokens", tokenHandler.CreateToken)
		r.Post("/users", userHandler.CreateUser)
		r.Get("/ws", wsHandler.HandleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(deps.TokenService))

			r.Delete("/tokens", tokenHandler.RevokeToken)

			r.Get("/users", userHandler.ListUsers)
			r.Get("/users/{id}", userHandler.GetUser)
			r.Put("/users/{id}", userHandler.UpdateUser)

			r.Get("/pois", poiHandler.ListPOIs)
			r.Post("/pois", poiHandler.CreatePOI)
			r.Get("/pois/{id}", poiHandler.GetPOI)
			r.Put("/pois/{id}", poiHandler.UpdatePOI)
		})
	})

	return r
}

func healthHandler(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				respondError(w, http.StatusServiceUnavailable, "unavailable", "storage unreachable")
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
