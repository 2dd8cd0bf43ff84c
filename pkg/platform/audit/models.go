package audit

import (
	"time"

	"github.com/google/uuid"

	"attestry/pkg/attrs"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// credential lifecycle and issuer standing. These require durable storage
	// and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring,
	// e.g. blocked transfer attempts and failed role checks.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture one committed logical state
// transition. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID            uuid.UUID
	Category      EventCategory
	Timestamp     time.Time
	Actor         string // caller identity performing the action
	Subject       string // identity the action is about (issuer, earner, owner)
	Action        string
	CertificateID string // decimal certificate id for issuance events
	Recipient     string // certificate recipient on issue, previous owner on revoke
	ContentHash   string
	Reason        string
	RequestID     string // correlation id from the HTTP request context
}

// AuditEvent names the registry's durable events. Exactly one is emitted per
// committed logical state transition; failed operations emit nothing.
type AuditEvent string

const (
	// Issuer Directory events
	EventIssuerCreated AuditEvent = "issuer_created"
	EventIssuerRemoved AuditEvent = "issuer_removed"
	EventIssuerUpdated AuditEvent = "issuer_updated"

	// Earner events
	EventEarnerRegistered AuditEvent = "earner_registered"
	EventEarnerUpdated    AuditEvent = "earner_updated"

	// Certificate lifecycle events
	EventCertificateIssued  AuditEvent = "certificate_issued"
	EventCertificateRevoked AuditEvent = "certificate_revoked"
	EventWelcomeIssued      AuditEvent = "welcome_certificate_issued"

	// Guard events
	EventTransferBlocked AuditEvent = "transfer_blocked"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventIssuerCreated:      CategoryCompliance,
	EventIssuerRemoved:      CategoryCompliance,
	EventIssuerUpdated:      CategoryCompliance,
	EventCertificateIssued:  CategoryCompliance,
	EventCertificateRevoked: CategoryCompliance,

	EventTransferBlocked: CategorySecurity,

	EventEarnerRegistered: CategoryOperations,
	EventEarnerUpdated:    CategoryOperations,
	EventWelcomeIssued:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// EventFromAttrs builds an Event from slog-style key-value attributes so a
// service emits one attribute list for both its audit log line and the
// durable event. Typed ids pass through as values; their string form is
// extracted here.
func EventFromAttrs(action AuditEvent, kv ...any) Event {
	return Event{
		Action:        string(action),
		Actor:         attrs.ExtractStringer(kv, "actor"),
		Subject:       attrs.ExtractStringer(kv, "subject"),
		Recipient:     attrs.ExtractStringer(kv, "recipient"),
		CertificateID: attrs.ExtractStringer(kv, "certificate_id"),
		ContentHash:   attrs.ExtractStringer(kv, "content_hash"),
		Reason:        attrs.ExtractString(kv, "reason"),
		RequestID:     attrs.ExtractString(kv, "request_id"),
	}
}
