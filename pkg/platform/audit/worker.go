package audit

import (
	"context"
	"log/slog"
)

// Sink forwards audit events to an external system (e.g. Kafka) after they
// have been persisted. The registry never depends on a sink for correctness.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from a channel, persists them, and forwards
// them to an optional sink. It decouples request handling from audit I/O.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger, sink Sink) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

// Run processes events until the context is cancelled. Sink failures are
// logged, not fatal; store failures stop the worker because losing durable
// compliance events is not acceptable silently.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
			if w.sink == nil {
				continue
			}
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit sink publish failed",
					"event_id", event.ID.String(),
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
