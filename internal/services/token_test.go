package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestTokenService(t *testing.T) (*TokenService, *UserService, *fakeClock) {
	t.Helper()
	users, store := newTestUserService(t)
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tokens := NewTokenService(store, users, time.Hour)
	tokens.now = clock.Now
	return tokens, users, clock
}

func TestIssueAndValidate(t *testing.T) {
	tokens, users, clock := newTestTokenService(t)
	ctx := context.Background()
	user := registerUser(t, users, "ag", "test")

	issued, err := tokens.Issue(ctx, "ag", "test")
	require.NoError(t, err)
	assert.Len(t, issued.Token, 64)
	assert.Equal(t, clock.now.Add(time.Hour), issued.ExpiresAt)

	got, err := tokens.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "ag", got.Username)
}

func TestIssueRejectsBadCredentials(t *testing.T) {
	tokens, users, _ := newTestTokenService(t)
	ctx := context.Background()
	registerUser(t, users, "ag", "test")

	_, err := tokens.Issue(ctx, "ag", "dog")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = tokens.Issue(ctx, "nobody", "test")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssueTrimsUsernameLikeRegistration(t *testing.T) {
	tokens, users, _ := newTestTokenService(t)
	ctx := context.Background()
	user, err := users.Register(ctx, RegisterRequest{
		Username: strPtr(" ag "),
		Email:    strPtr("ag@test.com"),
		Password: strPtr("test"),
	})
	require.NoError(t, err)
	require.Equal(t, "ag", user.Username)

	for _, username := range []string{"ag", "ag ", " ag"} {
		issued, err := tokens.Issue(ctx, username, "test")
		require.NoError(t, err, "%q", username)
		assert.NotEmpty(t, issued.Token)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	tokens, _, _ := newTestTokenService(t)
	ctx := context.Background()

	_, err := tokens.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Validate(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpiredToken(t *testing.T) {
	tokens, users, clock := newTestTokenService(t)
	ctx := context.Background()
	registerUser(t, users, "ag", "test")

	issued, err := tokens.Issue(ctx, "ag", "test")
	require.NoError(t, err)

	clock.now = clock.now.Add(59 * time.Minute)
	_, err = tokens.Validate(ctx, issued.Token)
	require.NoError(t, err)

	// Validity ends exactly at the expiry instant.
	clock.now = issued.ExpiresAt
	_, err = tokens.Validate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	clock.now = issued.ExpiresAt.Add(24 * time.Hour)
	_, err = tokens.Validate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestReissueReplacesToken(t *testing.T) {
	tokens, users, clock := newTestTokenService(t)
	ctx := context.Background()
	registerUser(t, users, "ag", "test")

	first, err := tokens.Issue(ctx, "ag", "test")
	require.NoError(t, err)

	clock.now = clock.now.Add(30 * time.Minute)
	second, err := tokens.Issue(ctx, "ag", "test")
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, clock.now.Add(time.Hour), second.ExpiresAt)

	_, err = tokens.Validate(ctx, first.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tokens.Validate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	tokens, users, _ := newTestTokenService(t)
	ctx := context.Background()
	registerUser(t, users, "ag", "test")

	issued, err := tokens.Issue(ctx, "ag", "test")
	require.NoError(t, err)
	user, err := tokens.Validate(ctx, issued.Token)
	require.NoError(t, err)

	require.NoError(t, tokens.Revoke(ctx, user))
	assert.Nil(t, user.Token)

	_, err = tokens.Validate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// idempotent
	assert.NoError(t, tokens.Revoke(ctx, user))
}

func TestGenerateTokenIsRandom(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := generateToken()
		require.NoError(t, err)
		assert.Regexp(t, "^[0-9a-f]{64}$", token)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
