// Package store tracks which certificates each issuer has outstanding.
//
// Each issuer holds a growable array of certificate ids plus an id→position
// map, mirroring the Issuer Directory layout: O(1) membership, O(1) removal
// via swap-with-last-and-truncate. A global id→issuer reverse map answers
// "who issued this" without scanning.
package store

import (
	"context"
	"sync"

	"attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

type issuerIndex struct {
	ids []domain.CertificateID
	pos map[domain.CertificateID]int
}

type IndexStore struct {
	mu       sync.RWMutex
	byIssuer map[domain.IdentityID]*issuerIndex
	issuerOf map[domain.CertificateID]domain.IdentityID
}

func NewIndexStore() *IndexStore {
	return &IndexStore{
		byIssuer: make(map[domain.IdentityID]*issuerIndex),
		issuerOf: make(map[domain.CertificateID]domain.IdentityID),
	}
}

// Append records a certificate under its issuer.
// Returns sentinel.ErrAlreadyUsed if the id is already indexed.
func (s *IndexStore) Append(_ context.Context, issuer domain.IdentityID, id domain.CertificateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.issuerOf[id]; exists {
		return sentinel.ErrAlreadyUsed
	}
	idx, exists := s.byIssuer[issuer]
	if !exists {
		idx = &issuerIndex{pos: make(map[domain.CertificateID]int)}
		s.byIssuer[issuer] = idx
	}
	idx.pos[id] = len(idx.ids)
	idx.ids = append(idx.ids, id)
	s.issuerOf[id] = issuer
	return nil
}

// Remove drops a certificate from its issuer's index via
// swap-with-last-and-truncate. The relocated id keeps its membership, only
// its position changes.
func (s *IndexStore) Remove(_ context.Context, issuer domain.IdentityID, id domain.CertificateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, exists := s.byIssuer[issuer]
	if !exists {
		return sentinel.ErrNotFound
	}
	pos, exists := idx.pos[id]
	if !exists {
		return sentinel.ErrNotFound
	}
	last := len(idx.ids) - 1
	if pos != last {
		moved := idx.ids[last]
		idx.ids[pos] = moved
		idx.pos[moved] = pos
	}
	idx.ids = idx.ids[:last]
	delete(idx.pos, id)
	delete(s.issuerOf, id)
	return nil
}

// Contains reports whether the issuer has the certificate outstanding.
func (s *IndexStore) Contains(_ context.Context, issuer domain.IdentityID, id domain.CertificateID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, exists := s.byIssuer[issuer]
	if !exists {
		return false, nil
	}
	_, exists = idx.pos[id]
	return exists, nil
}

// List returns the issuer's outstanding certificate ids in current internal
// order. Order is not stable across removals.
func (s *IndexStore) List(_ context.Context, issuer domain.IdentityID) ([]domain.CertificateID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, exists := s.byIssuer[issuer]
	if !exists {
		return []domain.CertificateID{}, nil
	}
	out := make([]domain.CertificateID, len(idx.ids))
	copy(out, idx.ids)
	return out, nil
}

// IssuerOf returns the issuer that minted the certificate.
// Returns sentinel.ErrNotFound for unindexed ids.
func (s *IndexStore) IssuerOf(_ context.Context, id domain.CertificateID) (domain.IdentityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issuer, exists := s.issuerOf[id]
	if !exists {
		return domain.IdentityID{}, sentinel.ErrNotFound
	}
	return issuer, nil
}

// Count returns the number of certificates the issuer has outstanding.
func (s *IndexStore) Count(_ context.Context, issuer domain.IdentityID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, exists := s.byIssuer[issuer]
	if !exists {
		return 0, nil
	}
	return len(idx.ids), nil
}
