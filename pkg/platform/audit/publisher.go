package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store persists audit events. Append-only; implementations must never mutate
// a stored event.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit persists the event, filling in id, category, and timestamp when the
// caller left them zero.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	return p.store.Append(ctx, event)
}

// List returns the stored events for a subject identity.
func (p *Publisher) List(ctx context.Context, subject string) ([]Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

// AsyncPublisher enqueues events for a Worker instead of appending inline,
// keeping audit I/O off the request path. When the inbox is full the event is
// dropped with a warning; the synchronous log line in the emitting service
// still records the transition.
type AsyncPublisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewAsyncPublisher(inbox chan<- Event, logger *slog.Logger) *AsyncPublisher {
	return &AsyncPublisher{inbox: inbox, logger: logger}
}

func (p *AsyncPublisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"subject", event.Subject,
		)
		return nil
	}
}
