// Package memory holds process-local stores used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UserStore is a concurrency-safe in-memory ports.UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User // keyed by ID
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	if u.LastLogin != nil {
		t := *u.LastLogin
		clone.LastLogin = &t
	}
	return &clone
}

func (s *UserStore) FindByUsernameOrEmail(_ context.Context, login string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u := s.byUsername(username); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *UserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *UserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byUsername(username) != nil, nil
}

func (s *UserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byEmail(email) != nil, nil
}

// Save enforces username and email uniqueness under the write lock.
func (s *UserStore) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byUsername(user.Username) != nil {
		return nil, domain.ErrUsernameTaken
	}
	if s.byEmail(user.Email) != nil {
		return nil, domain.ErrEmailTaken
	}

	stored := cloneUser(user)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (s *UserStore) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if other := s.byUsername(user.Username); other != nil && other.ID != cur.ID {
		return domain.ErrUsernameTaken
	}
	if other := s.byEmail(user.Email); other != nil && other.ID != cur.ID {
		return domain.ErrEmailTaken
	}
	cur.Username = user.Username
	cur.Email = user.Email
	cur.PasswordHash = user.PasswordHash
	cur.FirstName = user.FirstName
	cur.LastName = user.LastName
	cur.IsActive = user.IsActive
	cur.IsEmailVerified = user.IsEmailVerified
	cur.Roles = append([]domain.Role(nil), user.Roles...)
	return nil
}

func (s *UserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	cur.LastLogin = &at
	return nil
}

func (s *UserStore) List(_ context.Context, page, size int) ([]*domain.User, int64, error) {
	s.mu.RLock()
	all := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, cloneUser(u))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Username < all[j].Username
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := int64(len(all))
	if page < 1 || size < 1 || page-1 > len(all)/size {
		return []*domain.User{}, total, nil
	}
	start := (page - 1) * size
	if start >= len(all) {
		return []*domain.User{}, total, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// Ping always succeeds.
func (s *UserStore) Ping(context.Context) error { return nil }

func (s *UserStore) byUsername(username string) *domain.User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (s *UserStore) byEmail(email string) *domain.User {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}
