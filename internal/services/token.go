package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"poi-backend/internal/models"
	"poi-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxTokenAttempts = 3

// TokenService issues, validates and revokes opaque bearer tokens
type TokenService struct {
	userRepo    UserStore
	userService *UserService
	ttl         time.Duration
	now         func() time.Time
}

// NewTokenService creates a new token service; tokens stay valid for ttl after issuance
func NewTokenService(userRepo UserStore, userService *UserService, ttl time.Duration) *TokenService {
	return &TokenService{
		userRepo:    userRepo,
		userService: userService,
		ttl:         ttl,
		now:         time.Now,
	}
}

// IssuedToken is a freshly issued bearer token
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issue checks the credentials and stores a new token for the user,
// replacing any previous one and measuring validity from now.
// The username is trimmed the same way registration trims it.
func (s *TokenService) Issue(ctx context.Context, username, password string) (*IssuedToken, error) {
	username = strings.TrimSpace(username)
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !s.userService.CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.ttl).UTC()
	for i := 0; i < maxTokenAttempts; i++ {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}

		err = s.userRepo.SetToken(ctx, user.ID, &token, &expiresAt)
		if err == nil {
			return &IssuedToken{Token: token, ExpiresAt: expiresAt}, nil
		}
		var conflict *repository.UniqueViolationError
		if !errors.As(err, &conflict) {
			return nil, fmt.Errorf("failed to store token: %w", err)
		}
		log.Warn().Int64("user_id", user.ID).Msg("Token collision, regenerating")
	}
	return nil, fmt.Errorf("failed to generate unique token after %d attempts", maxTokenAttempts)
}

// Validate returns the user owning token. It has no side effects.
func (s *TokenService) Validate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.userRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if user.TokenExpiration == nil {
		return nil, ErrInvalidToken
	}
	if !s.now().Before(*user.TokenExpiration) {
		return nil, ErrTokenExpired
	}
	return user, nil
}

// Revoke clears the user's token. Revoking twice is not an error.
func (s *TokenService) Revoke(ctx context.Context, user *models.User) error {
	if err := s.userRepo.SetToken(ctx, user.ID, nil, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	user.Token = nil
	user.TokenExpiration = nil
	return nil
}

// generateToken returns 64 hex characters drawn from crypto/rand
func generateToken() (string, error) {
	var b strings.Builder
	for i := 0; i < 2; i++ {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		b.WriteString(strings.ReplaceAll(id.String(), "-", ""))
	}
	return b.String(), nil
}
