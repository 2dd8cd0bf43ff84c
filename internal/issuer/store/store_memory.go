// Package store holds the Issuer Directory's active set.
//
// The directory is a growable array paired with an identity→index map:
// O(1) membership, O(1) removal via swap-with-last-and-truncate. Removal
// relocates the last element into the vacated slot, so internal order is not
// stable across mutations and callers must not rely on it.
package store

import (
	"context"
	"sync"

	"attestry/internal/issuer/models"
	"attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	entries []*models.Record
	index   map[domain.IdentityID]int
}

func NewInMemory() *InMemory {
	return &InMemory{index: make(map[domain.IdentityID]int)}
}

// Add appends a record to the active set.
// Returns sentinel.ErrAlreadyUsed if the identity is already present.
func (s *InMemory) Add(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[record.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	copied := *record
	s.index[record.ID] = len(s.entries)
	s.entries = append(s.entries, &copied)
	return nil
}

// Remove deletes a record via swap-with-last-and-truncate. All surviving
// members keep their presence; only the relocated member's position changes.
func (s *InMemory) Remove(_ context.Context, id domain.IdentityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, exists := s.index[id]
	if !exists {
		return sentinel.ErrNotFound
	}
	last := len(s.entries) - 1
	if pos != last {
		moved := s.entries[last]
		s.entries[pos] = moved
		s.index[moved.ID] = pos
	}
	s.entries[last] = nil
	s.entries = s.entries[:last]
	delete(s.index, id)
	return nil
}

// FindByID returns a copy of the record for the identity.
func (s *InMemory) FindByID(_ context.Context, id domain.IdentityID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, exists := s.index[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.entries[pos]
	return &copied, nil
}

// Execute runs check then apply on the record while holding the lock, so
// validate-then-mutate is atomic. The updated record is returned as a copy.
func (s *InMemory) Execute(
	_ context.Context,
	id domain.IdentityID,
	check func(record *models.Record) error,
	apply func(record *models.Record),
) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, exists := s.index[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	record := s.entries[pos]
	if err := check(record); err != nil {
		return nil, err
	}
	apply(record)
	copied := *record
	return &copied, nil
}

// List returns the active identities in current internal order.
func (s *InMemory) List(_ context.Context) ([]domain.IdentityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IdentityID, len(s.entries))
	for i, record := range s.entries {
		out[i] = record.ID
	}
	return out, nil
}

// Count returns the number of active issuers.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}
