package models

import (
	"time"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// Record is one active issuer: its identity and content-hash pointer.
//
// Invariants:
//   - A record exists iff the identity currently holds the Issuer role
//     (directory membership and role grant move together in one operation)
//   - ContentHash is non-empty
//   - CreatedAt is immutable after construction
type Record struct {
	ID          domain.IdentityID  `json:"id"`
	ContentHash domain.ContentHash `json:"content_hash"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func NewRecord(id domain.IdentityID, hash domain.ContentHash, now time.Time) (*Record, error) {
	if id.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "issuer identity cannot be null")
	}
	if hash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "issuer content hash cannot be empty")
	}
	return &Record{
		ID:          id,
		ContentHash: hash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyUpdate replaces the content-hash pointer in place.
func (r *Record) ApplyUpdate(hash domain.ContentHash, now time.Time) {
	r.ContentHash = hash
	r.UpdatedAt = now
}
