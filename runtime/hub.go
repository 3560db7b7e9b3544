package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"fmt"
	"log/slog"
)

// Hub fans every event out to every subscriber, the publisher included.
//
// Delivery is synchronous and follows subscription order: SendAll returns once each
// sink has consumed the event. The hub does no filtering, subscribers drop events for
// scopes they are not looking at. A failing or panicking sink is logged and skipped,
// it never prevents delivery to the others.
//
// Sessions that are not subscribed when an event is sent never see it.
type Hub struct {
	registry *Registry
	log      *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{registry: NewRegistry(), log: log}
}

func (h *Hub) Subscribe(session domain.SessionID, sink contract.EventSink) {
	h.registry.Subscribe(session, sink)
	h.log.Debug("Session subscribed", "session", session)
}

func (h *Hub) Unsubscribe(session domain.SessionID) {
	h.registry.Unsubscribe(session)
	h.log.Debug("Session unsubscribed", "session", session)
}

func (h *Hub) Subscribers() int {
	return h.registry.Len()
}

// SendAll must never be called while holding a lock a sink could need.
func (h *Hub) SendAll(ctx context.Context, e event.DomainEvent) {
	for _, sub := range h.registry.Snapshot() {
		h.deliver(ctx, sub, e)
	}
}

func (h *Hub) deliver(ctx context.Context, sub subscription, e event.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Sink panicked", "session", sub.session, "event", e.Name(), "panic", fmt.Sprint(r))
		}
	}()
	if err := sub.sink.Consume(ctx, e); err != nil {
		h.log.Warn("Sink failed to consume event", "session", sub.session, "event", e.Name(), "error", err)
	}
}
