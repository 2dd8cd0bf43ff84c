package ledger

import (
	"context"
	"sync"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/sentinel"
)

// record keeps a certificate's ledger state. Burned certificates keep their
// record with a zero owner so ids stay observable and are never reused.
type record struct {
	owner    domain.IdentityID
	metadata domain.ContentHash
	minted   bool
}

// InMemory is the in-process ledger. The guard is installed at wiring time;
// without one, all ownership changes are permitted (a generic ledger).
type InMemory struct {
	mu    sync.RWMutex
	guard TransferGuard
	next  uint64
	certs map[domain.CertificateID]*record
	owned map[domain.IdentityID][]domain.CertificateID
}

func NewInMemory() *InMemory {
	return &InMemory{
		certs: make(map[domain.CertificateID]*record),
		owned: make(map[domain.IdentityID][]domain.CertificateID),
	}
}

// InstallGuard sets the transfer guard consulted before every ownership
// change. Call once during wiring, before the ledger is used.
func (l *InMemory) InstallGuard(guard TransferGuard) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.guard = guard
}

func (l *InMemory) checkGuard(from, to domain.IdentityID) error {
	if l.guard == nil {
		return nil
	}
	return l.guard(from, to)
}

func (l *InMemory) NextID(_ context.Context) (domain.CertificateID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := domain.CertificateID(l.next)
	l.next++
	return id, nil
}

func (l *InMemory) Mint(_ context.Context, owner domain.IdentityID, id domain.CertificateID) error {
	if owner.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "mint requires an owner")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if uint64(id) >= l.next {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate id was not allocated")
	}
	if _, exists := l.certs[id]; exists {
		return dErrors.Wrap(sentinel.ErrAlreadyUsed, dErrors.CodeConflict, "certificate id already minted")
	}
	if err := l.checkGuard(domain.IdentityID{}, owner); err != nil {
		return err
	}
	l.certs[id] = &record{owner: owner, minted: true}
	l.owned[owner] = append(l.owned[owner], id)
	return nil
}

func (l *InMemory) Burn(_ context.Context, id domain.CertificateID) (domain.IdentityID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, exists := l.certs[id]
	if !exists {
		return domain.IdentityID{}, sentinel.ErrNotFound
	}
	if rec.owner.IsZero() {
		return domain.IdentityID{}, dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeNotFound, "certificate already burned")
	}
	if err := l.checkGuard(rec.owner, domain.IdentityID{}); err != nil {
		return domain.IdentityID{}, err
	}
	previous := rec.owner
	l.removeOwned(previous, id)
	rec.owner = domain.IdentityID{}
	return previous, nil
}

func (l *InMemory) Transfer(_ context.Context, id domain.CertificateID, to domain.IdentityID) error {
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "transfer requires a recipient")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, exists := l.certs[id]
	if !exists || rec.owner.IsZero() {
		return sentinel.ErrNotFound
	}
	if err := l.checkGuard(rec.owner, to); err != nil {
		return err
	}
	l.removeOwned(rec.owner, id)
	rec.owner = to
	l.owned[to] = append(l.owned[to], id)
	return nil
}

func (l *InMemory) OwnerOf(_ context.Context, id domain.CertificateID) (domain.IdentityID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, exists := l.certs[id]
	if !exists {
		return domain.IdentityID{}, sentinel.ErrNotFound
	}
	return rec.owner, nil
}

func (l *InMemory) SetMetadata(_ context.Context, id domain.CertificateID, hash domain.ContentHash) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, exists := l.certs[id]
	if !exists {
		return sentinel.ErrNotFound
	}
	rec.metadata = hash
	return nil
}

func (l *InMemory) MetadataOf(_ context.Context, id domain.CertificateID) (domain.ContentHash, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, exists := l.certs[id]
	if !exists {
		return "", sentinel.ErrNotFound
	}
	return rec.metadata, nil
}

func (l *InMemory) BalanceOf(_ context.Context, owner domain.IdentityID) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.owned[owner]), nil
}

func (l *InMemory) CertificatesOf(_ context.Context, owner domain.IdentityID) ([]domain.CertificateID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.CertificateID{}, l.owned[owner]...), nil
}

// removeOwned drops id from the owner's list, preserving mint order.
// Caller holds the lock.
func (l *InMemory) removeOwned(owner domain.IdentityID, id domain.CertificateID) {
	ids := l.owned[owner]
	for i, candidate := range ids {
		if candidate == id {
			l.owned[owner] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}
