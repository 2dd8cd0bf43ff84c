package models

import (
	"time"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// Record is one registered earner: identity plus its content-hash pointer.
// Registration is permanent; there is no removal path, only certificate
// revocation.
type Record struct {
	ID           domain.IdentityID  `json:"id"`
	ContentHash  domain.ContentHash `json:"content_hash"`
	RegisteredAt time.Time          `json:"registered_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func NewRecord(id domain.IdentityID, hash domain.ContentHash, now time.Time) (*Record, error) {
	if id.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "earner identity cannot be null")
	}
	if hash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "earner content hash cannot be empty")
	}
	return &Record{
		ID:           id,
		ContentHash:  hash,
		RegisteredAt: now,
		UpdatedAt:    now,
	}, nil
}

// ApplyUpdate replaces the content-hash pointer in place.
func (r *Record) ApplyUpdate(hash domain.ContentHash, now time.Time) {
	r.ContentHash = hash
	r.UpdatedAt = now
}
