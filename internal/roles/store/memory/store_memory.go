package memory

import (
	"context"
	"sync"

	"attestry/internal/roles"
	"attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

// Store is the in-memory role store. Single-node deployments and tests use
// it; shared deployments use the Redis store behind the same interface.
type Store struct {
	mu          sync.RWMutex
	assignments map[domain.IdentityID]roles.Assignment
}

func New() *Store {
	return &Store{assignments: make(map[domain.IdentityID]roles.Assignment)}
}

func (s *Store) Get(_ context.Context, identity domain.IdentityID) (roles.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if assignment, ok := s.assignments[identity]; ok {
		return assignment, nil
	}
	return roles.Assignment{}, sentinel.ErrNotFound
}

func (s *Store) Save(_ context.Context, identity domain.IdentityID, assignment roles.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[identity] = assignment
	return nil
}

func (s *Store) Delete(_ context.Context, identity domain.IdentityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments, identity)
	return nil
}
