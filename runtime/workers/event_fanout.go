package workers

import (
	"context"
	"log/slog"
	"mcserve/contract"
	"mcserve/domain/event"
	"time"
)

// EventFanout broadcasts timeline events to in-process consumers: the
// permanent sinks (journal, chat index) then every live subscriber.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. Each sink gets sinkTimeout per event; a sink that
// fails or times out is logged and skipped. Sinks see events in append order.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	sinks       []contract.EventSink
	registry    contract.IRegistry
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, sinks []contract.EventSink, registry contract.IRegistry,
	events <-chan event.DomainEvent, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      events,
		sinks:       sinks,
		registry:    registry,
		sinkTimeout: sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout One sink for each event
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		w.consume(ctx, sink, evt)
	}
	if w.registry == nil {
		return
	}
	for _, sink := range w.registry.Sinks() {
		w.consume(ctx, sink, evt)
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		w.log.Warn("Sink failed to consume event", "kind", evt.Kind(), "id", evt.EventID(), "error", err)
	}
}
