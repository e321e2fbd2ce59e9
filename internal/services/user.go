package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"poi-backend/internal/models"
	"poi-backend/internal/pagination"
	"poi-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// UserStore persists users. Implementations report missing rows with
// repository.ErrNotFound and constraint conflicts with *repository.UniqueViolationError.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetToken(ctx context.Context, userID int64, token *string, expiration *time.Time) error
	List(ctx context.Context, limit, offset int) ([]*models.User, int, error)
}

// UserService handles registration, password checks and profile updates
type UserService struct {
	userRepo   UserStore
	bcryptCost int
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore) *UserService {
	return &UserService{
		userRepo:   userRepo,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// RegisterRequest represents the request body for creating a user
type RegisterRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateUserRequest represents a partial user update; nil fields are left unchanged
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Register creates a user with a salted bcrypt hash of the password
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	username, err := requiredString("username", req.Username)
	if err != nil {
		return nil, err
	}
	email, err := requiredString("email", req.Email)
	if err != nil {
		return nil, err
	}
	if req.Password == nil || *req.Password == "" {
		return nil, missingField("password")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(*req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, mapUserConflict(err)
	}
	return user, nil
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: id}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List retrieves one page of users ordered by ID
func (s *UserService) List(ctx context.Context, p pagination.Params) ([]*models.User, int, error) {
	users, total, err := s.userRepo.List(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Update merges req into the user identified by id. Users may only update themselves.
func (s *UserService) Update(ctx context.Context, actor *models.User, id int64, req UpdateUserRequest) (*models.User, error) {
	if actor == nil || actor.ID != id {
		return nil, &ForbiddenError{Message: "users can only update their own account"}
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username, err := requiredString("username", req.Username)
		if err != nil {
			return nil, err
		}
		user.Username = username
	}
	if req.Email != nil {
		email, err := requiredString("email", req.Email)
		if err != nil {
			return nil, err
		}
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, invalidField("password", "must not be empty")
		}
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: id}
		}
		return nil, mapUserConflict(err)
	}
	return user, nil
}

// CheckPassword reports whether candidate matches the stored hash.
// bcrypt compares in constant time.
func (s *UserService) CheckPassword(user *models.User, candidate string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(candidate)) == nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", invalidField("password", "must be at most 72 bytes")
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func mapUserConflict(err error) error {
	var conflict *repository.UniqueViolationError
	if errors.As(err, &conflict) {
		switch conflict.Constraint {
		case repository.ConstraintUserUsername:
			return ErrDuplicateUsername
		case repository.ConstraintUserEmail:
			return ErrDuplicateEmail
		}
	}
	return fmt.Errorf("failed to save user: %w", err)
}

func requiredString(field string, value *string) (string, error) {
	if value == nil {
		return "", missingField(field)
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return "", missingField(field)
	}
	return v, nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalidField("email", "is not a valid address")
	}
	return nil
}
