package audit_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "attestry/pkg/platform/audit"
	memorystore "attestry/pkg/platform/audit/store/memory"
)

func TestPublisher_Emit(t *testing.T) {
	ctx := context.Background()

	t.Run("fills id, timestamp, and category", func(t *testing.T) {
		store := memorystore.New()
		publisher := audit.NewPublisher(store)

		err := publisher.Emit(ctx, audit.Event{
			Subject: "issuer-a",
			Action:  string(audit.EventIssuerCreated),
		})
		require.NoError(t, err)

		events := store.All()
		require.Len(t, events, 1)
		assert.NotEqual(t, uuid.Nil, events[0].ID)
		assert.False(t, events[0].Timestamp.IsZero())
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	})

	t.Run("unknown action defaults to operations category", func(t *testing.T) {
		store := memorystore.New()
		publisher := audit.NewPublisher(store)

		require.NoError(t, publisher.Emit(ctx, audit.Event{Subject: "x", Action: "unknown"}))

		events := store.All()
		require.Len(t, events, 1)
		assert.Equal(t, audit.CategoryOperations, events[0].Category)
	})

	t.Run("lists by subject", func(t *testing.T) {
		store := memorystore.New()
		publisher := audit.NewPublisher(store)

		require.NoError(t, publisher.Emit(ctx, audit.Event{Subject: "a", Action: string(audit.EventEarnerRegistered)}))
		require.NoError(t, publisher.Emit(ctx, audit.Event{Subject: "b", Action: string(audit.EventEarnerRegistered)}))
		require.NoError(t, publisher.Emit(ctx, audit.Event{Subject: "a", Action: string(audit.EventEarnerUpdated)}))

		events, err := publisher.List(ctx, "a")
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, string(audit.EventEarnerRegistered), events[0].Action)
		assert.Equal(t, string(audit.EventEarnerUpdated), events[1].Action)
	})
}

func TestEventCategories(t *testing.T) {
	// Certificate lifecycle and issuer standing are compliance facts; blocked
	// transfers are security signals.
	assert.Equal(t, audit.CategoryCompliance, audit.EventCertificateIssued.Category())
	assert.Equal(t, audit.CategoryCompliance, audit.EventCertificateRevoked.Category())
	assert.Equal(t, audit.CategoryCompliance, audit.EventIssuerRemoved.Category())
	assert.Equal(t, audit.CategorySecurity, audit.EventTransferBlocked.Category())
	assert.Equal(t, audit.CategoryOperations, audit.EventEarnerRegistered.Category())
}
