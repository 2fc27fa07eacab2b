package memory

import (
	"context"
	"sync"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// RoleStore is an in-memory ports.RoleRepository.
type RoleStore struct {
	mu    sync.RWMutex
	roles map[domain.Role]domain.RoleRecord
}

func NewRoleStore() *RoleStore {
	return &RoleStore{roles: make(map[domain.Role]domain.RoleRecord)}
}

func (s *RoleStore) FindByName(_ context.Context, name domain.Role) (*domain.RoleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &r, nil
}

func (s *RoleStore) Ensure(_ context.Context, role domain.RoleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[role.Name]; !ok {
		s.roles[role.Name] = role
	}
	return nil
}
