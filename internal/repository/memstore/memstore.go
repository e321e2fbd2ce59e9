// Package memstore keeps users and POIs in process memory.
// It enforces the same unique constraints as the PostgreSQL schema and
// returns the same repository errors, so it can stand in for the database
// in local runs and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"poi-backend/internal/models"
	"poi-backend/internal/repository"
)

// UserStore is an in-memory user table
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.User
}

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{rows: make(map[int64]models.User)}
}

// Create inserts a user and assigns its ID
func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(user, 0); err != nil {
		return err
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now().UTC()
	s.rows[user.ID] = copyUser(user)
	return nil
}

// GetByID retrieves a user by ID
func (s *UserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ptrUser(row), nil
}

// GetByUsername retrieves a user by username
func (s *UserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username == username })
}

// GetByToken retrieves the user holding token
func (s *UserStore) GetByToken(_ context.Context, token string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Token != nil && *u.Token == token })
}

// Update writes username, email and password hash
func (s *UserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := s.checkUnique(user, user.ID); err != nil {
		return err
	}
	row.Username = user.Username
	row.Email = user.Email
	row.PasswordHash = user.PasswordHash
	s.rows[user.ID] = row
	return nil
}

// SetToken stores or clears a user's token
func (s *UserStore) SetToken(_ context.Context, userID int64, token *string, expiration *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if token != nil {
		for id, other := range s.rows {
			if id != userID && other.Token != nil && *other.Token == *token {
				return &repository.UniqueViolationError{Constraint: repository.ConstraintUserToken}
			}
		}
	}
	row.Token = cloneString(token)
	row.TokenExpiration = cloneTime(expiration)
	s.rows[userID] = row
	return nil
}

// List retrieves users ordered by ID
func (s *UserStore) List(_ context.Context, limit, offset int) ([]*models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := sortedIDs(s.rows)
	users := make([]*models.User, 0, limit)
	for _, id := range window(ids, limit, offset) {
		users = append(users, ptrUser(s.rows[id]))
	}
	return users, len(ids), nil
}

func (s *UserStore) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if match(&row) {
			return ptrUser(row), nil
		}
	}
	return nil, repository.ErrNotFound
}

// checkUnique must be called with mu held
func (s *UserStore) checkUnique(user *models.User, selfID int64) error {
	for id, other := range s.rows {
		if id == selfID {
			continue
		}
		if other.Username == user.Username {
			return &repository.UniqueViolationError{Constraint: repository.ConstraintUserUsername}
		}
		if other.Email == user.Email {
			return &repository.UniqueViolationError{Constraint: repository.ConstraintUserEmail}
		}
	}
	return nil
}

// POIStore is an in-memory POI table
type POIStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.POI
}

// NewPOIStore creates an empty POI store
func NewPOIStore() *POIStore {
	return &POIStore{rows: make(map[int64]models.POI)}
}

// Create inserts a POI and assigns its ID
func (s *POIStore) Create(_ context.Context, poi *models.POI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(poi.Name, 0) {
		return &repository.UniqueViolationError{Constraint: repository.ConstraintPOIName}
	}
	now := time.Now().UTC()
	s.nextID++
	poi.ID = s.nextID
	poi.CreatedAt = now
	poi.UpdatedAt = now
	s.rows[poi.ID] = *poi
	return nil
}

// GetByID retrieves a POI by ID
func (s *POIStore) GetByID(_ context.Context, id int64) (*models.POI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

// NameExists checks if a POI other than excludeID uses name
func (s *POIStore) NameExists(_ context.Context, name string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nameTaken(name, excludeID), nil
}

// Update writes all mutable fields of a POI
func (s *POIStore) Update(_ context.Context, poi *models.POI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[poi.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.nameTaken(poi.Name, poi.ID) {
		return &repository.UniqueViolationError{Constraint: repository.ConstraintPOIName}
	}
	row.Name = poi.Name
	row.Details = poi.Details
	row.Lat = poi.Lat
	row.Lng = poi.Lng
	row.UpdatedAt = time.Now().UTC()
	s.rows[poi.ID] = row
	poi.UpdatedAt = row.UpdatedAt
	return nil
}

// List retrieves POIs ordered by ID
func (s *POIStore) List(_ context.Context, limit, offset int) ([]*models.POI, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := sortedIDs(s.rows)
	pois := make([]*models.POI, 0, limit)
	for _, id := range window(ids, limit, offset) {
		row := s.rows[id]
		pois = append(pois, &row)
	}
	return pois, len(ids), nil
}

func (s *POIStore) nameTaken(name string, excludeID int64) bool {
	for id, row := range s.rows {
		if id != excludeID && row.Name == name {
			return true
		}
	}
	return false
}

func sortedIDs[T any](rows map[int64]T) []int64 {
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func window(ids []int64, limit, offset int) []int64 {
	if offset < 0 || limit < 0 || offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}

func copyUser(u *models.User) models.User {
	c := *u
	c.Token = cloneString(u.Token)
	c.TokenExpiration = cloneTime(u.TokenExpiration)
	return c
}

func ptrUser(u models.User) *models.User {
	c := copyUser(&u)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
