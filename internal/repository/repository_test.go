package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"poi-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: "23505", ConstraintName: ConstraintPOIName})
	var conflict *UniqueViolationError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConstraintPOIName, conflict.Constraint)

	other := &pgconn.PgError{Code: "23502"}
	assert.Same(t, error(other), translateError(other))

	plain := errors.New("boom")
	assert.Equal(t, plain, translateError(plain))
}

// openTestDB connects to the database named by POI_TEST_DATABASE_URL and
// starts every test from empty tables
func openTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POI_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("POI_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, Migrate(ctx, db))
	_, err = db.Exec(ctx, `TRUNCATE users, pois RESTART IDENTITY`)
	require.NoError(t, err)
	return db
}

func TestPOIRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewPOIRepository(db)
	ctx := context.Background()

	here := &models.POI{Name: "here", Details: "testings the details", Lat: 20.23938476, Lng: 43.239474663}
	require.NoError(t, repo.Create(ctx, here))
	assert.Equal(t, int64(1), here.ID)

	got, err := repo.GetByID(ctx, here.ID)
	require.NoError(t, err)
	assert.Equal(t, here.Name, got.Name)
	assert.Equal(t, here.Lat, got.Lat)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	var conflict *UniqueViolationError
	err = repo.Create(ctx, &models.POI{Name: "here", Lat: 1, Lng: 1})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConstraintPOIName, conflict.Constraint)

	there := &models.POI{Name: "there", Lat: 1, Lng: 1}
	require.NoError(t, repo.Create(ctx, there))

	exists, err := repo.NameExists(ctx, "there", there.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	there.Name = "here"
	require.ErrorAs(t, repo.Update(ctx, there), &conflict)

	there.Name = "over there"
	require.NoError(t, repo.Update(ctx, there))
	assert.ErrorIs(t, repo.Update(ctx, &models.POI{ID: 999, Name: "x"}), ErrNotFound)

	pois, total, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, pois, 1)
	assert.Equal(t, "over there", pois[0].Name)
}

func TestPOIRepositoryConcurrentCreate(t *testing.T) {
	db := openTestDB(t)
	repo := NewPOIRepository(db)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.Create(ctx, &models.POI{Name: "contested", Lat: float64(i), Lng: 0})
		}()
	}
	wg.Wait()

	var conflict *UniqueViolationError
	if errs[0] == nil {
		assert.ErrorAs(t, errs[1], &conflict)
	} else {
		assert.NoError(t, errs[1])
		assert.ErrorAs(t, errs[0], &conflict)
	}
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	ag := &models.User{Username: "ag", Email: "ag@test.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, ag))

	var conflict *UniqueViolationError
	err := repo.Create(ctx, &models.User{Username: "ag", Email: "other@test.com", PasswordHash: "hash"})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConstraintUserUsername, conflict.Constraint)

	token := "t0ken"
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.SetToken(ctx, ag.ID, &token, &exp))

	got, err := repo.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ag.ID, got.ID)
	require.NotNil(t, got.TokenExpiration)
	assert.True(t, exp.Equal(*got.TokenExpiration))

	require.NoError(t, repo.SetToken(ctx, ag.ID, nil, nil))
	_, err = repo.GetByToken(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)

	ag.Username = "tim"
	require.NoError(t, repo.Update(ctx, ag))
	got, err = repo.GetByUsername(ctx, "tim")
	require.NoError(t, err)
	assert.Equal(t, ag.ID, got.ID)

	users, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, users, 1)
}
