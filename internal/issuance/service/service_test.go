package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestry/internal/gate"
	"attestry/internal/issuance/store"
	"attestry/internal/ledger"
	"attestry/internal/roles"
	rolesmemory "attestry/internal/roles/store/memory"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	audit "attestry/pkg/platform/audit"
	auditmemory "attestry/pkg/platform/audit/store/memory"
	"attestry/pkg/requestcontext"
)

type fixture struct {
	service *Service
	roles   *roles.Registry
	ledger  *ledger.InMemory
	index   *store.IndexStore
	events  *auditmemory.Store
	issuer  domain.IdentityID
	earner  domain.IdentityID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	registry := roles.New(rolesmemory.New())
	l := ledger.NewInMemory()
	l.InstallGuard(ledger.Soulbound)
	index := store.NewIndexStore()
	events := auditmemory.New()

	issuer := domain.IdentityID(uuid.New())
	earner := domain.IdentityID(uuid.New())
	ctx := context.Background()
	require.NoError(t, registry.Grant(ctx, issuer, domain.RoleIssuer))
	require.NoError(t, registry.Grant(ctx, earner, domain.RoleEarner))

	svc := New(
		gate.New(registry),
		registry,
		l,
		index,
		WithAuditPublisher(audit.NewPublisher(events)),
	)
	return &fixture{
		service: svc,
		roles:   registry,
		ledger:  l,
		index:   index,
		events:  events,
		issuer:  issuer,
		earner:  earner,
	}
}

func (f *fixture) as(id domain.IdentityID) context.Context {
	return requestcontext.WithCallerID(context.Background(), id)
}

func TestService_Issue(t *testing.T) {
	t.Run("first certificate gets id zero", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.as(f.issuer)

		id, err := f.service.Issue(ctx, f.earner, "cert-hash")
		require.NoError(t, err)
		assert.Equal(t, domain.CertificateID(0), id)

		owner, err := f.service.OwnerOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, f.earner, owner)

		issued, err := f.service.ListIssued(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.CertificateID{0}, issued)

		events := f.events.All()
		require.Len(t, events, 1)
		assert.Equal(t, string(audit.EventCertificateIssued), events[0].Action)
		assert.Equal(t, f.earner.String(), events[0].Recipient)
		assert.Equal(t, "0", events[0].CertificateID)
	})

	t.Run("ids are strictly increasing", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.as(f.issuer)

		for want := domain.CertificateID(0); want < 3; want++ {
			id, err := f.service.Issue(ctx, f.earner, "cert-hash")
			require.NoError(t, err)
			assert.Equal(t, want, id)
		}
	})

	t.Run("requires issuer caller", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Issue(f.as(f.earner), f.earner, "cert-hash")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		_, err = f.service.Issue(context.Background(), f.earner, "cert-hash")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("recipient must be a registered earner", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.as(f.issuer)

		_, err := f.service.Issue(ctx, domain.IdentityID(uuid.New()), "cert-hash")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRecipient))

		otherIssuer := domain.IdentityID(uuid.New())
		require.NoError(t, f.roles.Grant(ctx, otherIssuer, domain.RoleIssuer))
		_, err = f.service.Issue(ctx, otherIssuer, "cert-hash")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRecipient))

		_, err = f.service.Issue(ctx, domain.IdentityID{}, "cert-hash")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRecipient))
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Issue(f.as(f.issuer), f.earner, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestService_Revoke(t *testing.T) {
	t.Run("issue then revoke clears index and owner", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.as(f.issuer)

		id, err := f.service.Issue(ctx, f.earner, "cert-hash")
		require.NoError(t, err)
		require.Equal(t, domain.CertificateID(0), id)

		require.NoError(t, f.service.Revoke(ctx, id, "rescinded"))

		issued, err := f.service.ListIssued(ctx)
		require.NoError(t, err)
		assert.Empty(t, issued)

		owner, err := f.service.OwnerOf(ctx, id)
		require.NoError(t, err)
		assert.True(t, owner.IsZero())

		balance, err := f.ledger.BalanceOf(ctx, f.earner)
		require.NoError(t, err)
		assert.Equal(t, 0, balance)

		events := f.events.All()
		require.Len(t, events, 2)
		assert.Equal(t, string(audit.EventCertificateRevoked), events[1].Action)
		assert.Equal(t, f.earner.String(), events[1].Recipient)
		assert.Equal(t, "rescinded", events[1].Reason)
	})

	t.Run("revoked id is never reused", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.as(f.issuer)

		id, err := f.service.Issue(ctx, f.earner, "cert-hash")
		require.NoError(t, err)
		require.NoError(t, f.service.Revoke(ctx, id, ""))

		next, err := f.service.Issue(ctx, f.earner, "cert-hash")
		require.NoError(t, err)
		assert.Equal(t, domain.CertificateID(1), next)
	})

	t.Run("only the minting issuer may revoke", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.as(f.issuer)

		id, err := f.service.Issue(ctx, f.earner, "cert-hash")
		require.NoError(t, err)

		other := domain.IdentityID(uuid.New())
		require.NoError(t, f.roles.Grant(ctx, other, domain.RoleIssuer))

		err = f.service.Revoke(f.as(other), id, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		owner, err := f.service.OwnerOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, f.earner, owner)
	})

	t.Run("unknown certificate fails with not found", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.Revoke(f.as(f.issuer), 42, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("double revoke fails with not found", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.as(f.issuer)

		id, err := f.service.Issue(ctx, f.earner, "cert-hash")
		require.NoError(t, err)
		require.NoError(t, f.service.Revoke(ctx, id, ""))

		err = f.service.Revoke(ctx, id, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestService_Transfer(t *testing.T) {
	t.Run("every transfer attempt is blocked and recorded", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.as(f.issuer)

		id, err := f.service.Issue(ctx, f.earner, "cert-hash")
		require.NoError(t, err)

		err = f.service.Transfer(f.as(f.earner), id, domain.IdentityID(uuid.New()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransferBlocked))

		owner, err := f.service.OwnerOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, f.earner, owner)

		events := f.events.All()
		last := events[len(events)-1]
		assert.Equal(t, string(audit.EventTransferBlocked), last.Action)
		assert.Equal(t, audit.CategorySecurity, last.Category)
	})

	t.Run("requires an authenticated caller", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.Transfer(context.Background(), 0, domain.IdentityID(uuid.New()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestService_OwnedCertificates(t *testing.T) {
	t.Run("returns owned certificates with metadata", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.as(f.issuer)

		a, err := f.service.Issue(ctx, f.earner, "cert-a")
		require.NoError(t, err)
		b, err := f.service.Issue(ctx, f.earner, "cert-b")
		require.NoError(t, err)

		owned, err := f.service.OwnedCertificates(f.as(f.earner))
		require.NoError(t, err)
		require.Len(t, owned, 2)
		assert.Equal(t, Certificate{ID: a, Owner: f.earner, ContentHash: "cert-a"}, owned[0])
		assert.Equal(t, Certificate{ID: b, Owner: f.earner, ContentHash: "cert-b"}, owned[1])
	})

	t.Run("empty for identity with no certificates", func(t *testing.T) {
		f := newFixture(t)
		owned, err := f.service.OwnedCertificates(f.as(f.earner))
		require.NoError(t, err)
		assert.Empty(t, owned)
	})
}

func TestService_OwnerOf(t *testing.T) {
	t.Run("never minted id fails with not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.OwnerOf(context.Background(), 9)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
