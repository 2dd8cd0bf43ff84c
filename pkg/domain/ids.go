package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "attestry/pkg/domain-errors"
)

// IdentityID identifies a principal in the registry. The zero value is the
// null identity and doubles as the "no owner" side of a ledger transition:
// mint moves ownership from zero to an identity, burn moves it back to zero.
//
// Usage: construct via ParseIdentityID at trust boundaries so a zero value can
// only ever mean "null"; direct casting bypasses validation.
type IdentityID uuid.UUID

// ParseIdentityID constructs an IdentityID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID; no other errors are expected.
func ParseIdentityID(s string) (IdentityID, error) {
	if s == "" {
		return IdentityID{}, dErrors.New(dErrors.CodeInvalidInput, "identity id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return IdentityID{}, dErrors.New(dErrors.CodeInvalidInput, "identity id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return IdentityID{}, dErrors.New(dErrors.CodeInvalidInput, "identity id cannot be the nil UUID")
	}
	return IdentityID(parsed), nil
}

// IsZero reports whether the identity is the null identity.
func (id IdentityID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// String returns the canonical UUID string form.
func (id IdentityID) String() string {
	return uuid.UUID(id).String()
}

// CertificateID numbers an issuance event. Ids are allocated by the ledger in
// strictly increasing order starting at 0 and are never reused after burn.
type CertificateID uint64

// ParseCertificateID constructs a CertificateID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or not an unsigned
// decimal integer.
func ParseCertificateID(s string) (CertificateID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "certificate id cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "certificate id must be an unsigned integer")
	}
	return CertificateID(n), nil
}

// String returns the decimal string form.
func (id CertificateID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
