package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"poi-backend/internal/models"
	"poi-backend/internal/repository/memstore"
	"poi-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer  abc ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic YWc6dGVzdA==", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tt.header)

		got, ok := BearerToken(req)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestAuthMiddleware(t *testing.T) {
	store := memstore.NewUserStore()
	users := services.NewUserService(store)
	tokens := services.NewTokenService(store, users, time.Hour)
	ctx := context.Background()

	_, err := users.Register(ctx, services.RegisterRequest{
		Username: ptr("ag"), Email: ptr("ag@test.com"), Password: ptr("test"),
	})
	require.NoError(t, err)
	issued, err := tokens.Issue(ctx, "ag", "test")
	require.NoError(t, err)

	var seen *models.User
	handler := AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issued.Token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "ag", seen.Username)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, services.CodeInvalidToken, body["error"])
		assert.NotEmpty(t, body["message"])
	})

	t.Run("unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := services.NewTokenService(store, users, time.Nanosecond)
		expired, err := shortLived.Issue(ctx, "ag", "test")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+expired.Token)
		rec := httptest.NewRecorder()
		AuthMiddleware(shortLived)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler reached with an expired token")
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, services.CodeTokenExpired, body["error"])
	})
}

func TestGetUserWithoutAuthentication(t *testing.T) {
	assert.Nil(t, GetUser(context.Background()))

	user := &models.User{ID: 7}
	assert.Same(t, user, GetUser(WithUser(context.Background(), user)))
}

func ptr(s string) *string { return &s }
