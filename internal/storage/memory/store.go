// Package memory is an in-process UserStore used by tests and local development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nhadat/listing-auth/internal/models"
	"github.com/nhadat/listing-auth/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps users in a map guarded by a mutex.
type Store struct {
	mu    sync.RWMutex
	users map[string]models.User
	roles map[string]models.Role
	now   func() time.Time
}

// NewStore returns an empty store seeded with the default roles.
func NewStore() *Store {
	roles := make(map[string]models.Role, len(models.SeedRoles))
	for _, r := range models.SeedRoles {
		roles[r.Name] = r
	}
	return &Store{
		users: make(map[string]models.User),
		roles: roles,
		now:   time.Now,
	}
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists || user.ID == "" {
		return models.User{}, fmt.Errorf("create user %q: %w", user.ID, storage.ErrAlreadyExists)
	}
	for _, u := range s.users {
		if u.IsDeleted {
			continue
		}
		if strings.EqualFold(u.Email, user.Email) {
			return models.User{}, storage.ErrDuplicateEmail
		}
		if u.Phone == user.Phone {
			return models.User{}, storage.ErrDuplicatePhone
		}
	}

	role, ok := s.roles[user.RoleName]
	if !ok {
		return models.User{}, fmt.Errorf("create user: unknown role %q", user.RoleName)
	}
	user.RoleID = role.ID
	user.IsDeleted = false
	user.CreatedAt = s.now().UTC()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.findFirst(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) FindByPhone(_ context.Context, phone string) (models.User, error) {
	return s.findFirst(func(u models.User) bool { return u.Phone == phone })
}

func (s *Store) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return storage.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = s.now().UTC()
	s.users[id] = u
	return nil
}

// SoftDelete flags a user as deleted. The row stays in the store.
func (s *Store) SoftDelete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsDeleted = true
	s.users[id] = u
	return nil
}

// SetAvatarKey records an avatar object key for a user.
func (s *Store) SetAvatarKey(id, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.AvatarKey = key
	s.users[id] = u
	return nil
}

func (s *Store) findFirst(match func(models.User) bool) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if !u.IsDeleted && match(u) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}
