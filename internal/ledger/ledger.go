// Package ledger defines the Credential Ledger collaborator contract: the
// external system of record for "certificate id → current owner".
//
// The registry does not own the ledger's storage; it owns the transfer guard
// installed on it. The in-memory implementation here serves tests and
// single-node deployments and honors the same contract a remote ledger would.
package ledger

import (
	"context"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// TransferGuard is invoked before every ownership change commits. A non-nil
// return rejects the change. from is the current owner (zero for mint), to is
// the next owner (zero for burn).
type TransferGuard func(from, to domain.IdentityID) error

// Soulbound is the guard the registry installs: an ownership change is
// permitted iff exactly one side is the null identity, i.e. it is a mint or a
// burn. Owner-to-owner transfer is always rejected.
func Soulbound(from, to domain.IdentityID) error {
	if from.IsZero() != to.IsZero() {
		return nil
	}
	return dErrors.New(dErrors.CodeTransferBlocked, "certificates are non-transferable")
}

// Ledger is the collaborator contract. Ids are allocated strictly increasing
// and never reused; every ownership change passes through the installed guard
// before commit.
type Ledger interface {
	// NextID allocates the next certificate id. Allocated ids are consumed
	// even if the subsequent mint fails.
	NextID(ctx context.Context) (domain.CertificateID, error)
	// Mint establishes ownership of a freshly allocated id.
	Mint(ctx context.Context, owner domain.IdentityID, id domain.CertificateID) error
	// Burn terminates ownership, returning the previous owner.
	Burn(ctx context.Context, id domain.CertificateID) (domain.IdentityID, error)
	// Transfer attempts an owner-to-owner move. Under the soulbound guard it
	// always fails; it exists because the underlying ledger is a generic
	// ownership ledger.
	Transfer(ctx context.Context, id domain.CertificateID, to domain.IdentityID) error
	// OwnerOf returns the current owner, the zero identity once burned, or
	// sentinel.ErrNotFound for an id never minted.
	OwnerOf(ctx context.Context, id domain.CertificateID) (domain.IdentityID, error)
	// SetMetadata attaches the content-hash pointer to a minted certificate.
	SetMetadata(ctx context.Context, id domain.CertificateID, hash domain.ContentHash) error
	// MetadataOf returns the content-hash pointer of a certificate.
	MetadataOf(ctx context.Context, id domain.CertificateID) (domain.ContentHash, error)
	// BalanceOf counts certificates currently owned by the identity.
	BalanceOf(ctx context.Context, owner domain.IdentityID) (int, error)
	// CertificatesOf lists the ids currently owned by the identity, in mint
	// order.
	CertificatesOf(ctx context.Context, owner domain.IdentityID) ([]domain.CertificateID, error)
}
