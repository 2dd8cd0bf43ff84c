package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/sentinel"
)

func newGuarded() *InMemory {
	l := NewInMemory()
	l.InstallGuard(Soulbound)
	return l
}

func newOwner() domain.IdentityID {
	return domain.IdentityID(uuid.New())
}

func mintOne(t *testing.T, l *InMemory, owner domain.IdentityID) domain.CertificateID {
	t.Helper()
	ctx := context.Background()
	id, err := l.NextID(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Mint(ctx, owner, id))
	return id
}

func TestInMemory_MonotonicIDs(t *testing.T) {
	ctx := context.Background()
	l := newGuarded()
	owner := newOwner()

	var prev domain.CertificateID
	for i := 0; i < 5; i++ {
		id, err := l.NextID(ctx)
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, domain.CertificateID(0), id)
		} else {
			assert.Greater(t, uint64(id), uint64(prev))
		}
		require.NoError(t, l.Mint(ctx, owner, id))
		prev = id
	}

	// Burning never frees an id for reuse.
	_, err := l.Burn(ctx, prev)
	require.NoError(t, err)
	next, err := l.NextID(ctx)
	require.NoError(t, err)
	assert.Greater(t, uint64(next), uint64(prev))
}

func TestInMemory_MintBurnOwnership(t *testing.T) {
	ctx := context.Background()
	l := newGuarded()
	owner := newOwner()

	id := mintOne(t, l, owner)

	got, err := l.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	balance, err := l.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	previous, err := l.Burn(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, owner, previous)

	// Owner is null after burn, and the id stays observable.
	got, err = l.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	balance, err = l.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestInMemory_TransferBlocked(t *testing.T) {
	ctx := context.Background()
	l := newGuarded()
	owner := newOwner()
	other := newOwner()

	id := mintOne(t, l, owner)

	err := l.Transfer(ctx, id, other)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransferBlocked))

	// Ownership unchanged.
	got, err := l.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestInMemory_UnguardedLedgerPermitsTransfer(t *testing.T) {
	// The underlying ledger is generic; soulbound semantics come from the
	// installed guard, not from the ledger itself.
	ctx := context.Background()
	l := NewInMemory()
	owner := newOwner()
	other := newOwner()

	id := mintOne(t, l, owner)
	require.NoError(t, l.Transfer(ctx, id, other))

	got, err := l.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, other, got)
}

func TestInMemory_EdgeCases(t *testing.T) {
	ctx := context.Background()
	l := newGuarded()
	owner := newOwner()

	t.Run("mint with unallocated id", func(t *testing.T) {
		err := l.Mint(ctx, owner, domain.CertificateID(99))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("double mint of one id", func(t *testing.T) {
		id := mintOne(t, l, owner)
		err := l.Mint(ctx, owner, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("double burn", func(t *testing.T) {
		id := mintOne(t, l, owner)
		_, err := l.Burn(ctx, id)
		require.NoError(t, err)
		_, err = l.Burn(ctx, id)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("owner of unknown id", func(t *testing.T) {
		_, err := l.OwnerOf(ctx, domain.CertificateID(12345))
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemory_MetadataAndEnumeration(t *testing.T) {
	ctx := context.Background()
	l := newGuarded()
	owner := newOwner()

	first := mintOne(t, l, owner)
	second := mintOne(t, l, owner)

	require.NoError(t, l.SetMetadata(ctx, first, "Qm1"))
	hash, err := l.MetadataOf(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentHash("Qm1"), hash)

	owned, err := l.CertificatesOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []domain.CertificateID{first, second}, owned)

	_, err = l.Burn(ctx, first)
	require.NoError(t, err)
	owned, err = l.CertificatesOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []domain.CertificateID{second}, owned)
}

func TestSoulbound(t *testing.T) {
	a := newOwner()
	b := newOwner()

	assert.NoError(t, Soulbound(domain.IdentityID{}, a)) // mint
	assert.NoError(t, Soulbound(a, domain.IdentityID{})) // burn
	assert.Error(t, Soulbound(a, b))                     // transfer
	assert.Error(t, Soulbound(domain.IdentityID{}, domain.IdentityID{}))
}
