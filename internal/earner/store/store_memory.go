// Package store holds registered earner records. Registration is append-only;
// a plain identity-keyed map is enough since there is no removal path.
package store

import (
	"context"
	"sync"

	"attestry/internal/earner/models"
	"attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	records map[domain.IdentityID]*models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[domain.IdentityID]*models.Record)}
}

// Add registers a record.
// Returns sentinel.ErrAlreadyUsed if the identity is already registered.
func (s *InMemory) Add(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	copied := *record
	s.records[record.ID] = &copied
	return nil
}

// FindByID returns a copy of the record for the identity.
func (s *InMemory) FindByID(_ context.Context, id domain.IdentityID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.records[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *record
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
	record, exists := s.records[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	if err := check(record); err != nil {
		return nil, err
	}
	apply(record)
	copied := *record
	return &copied, nil
}

// Count returns the number of registered earners.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
