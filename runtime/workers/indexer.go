package workers

import (
	"chat-hub/domain/event"
	"context"
	"log/slog"
)

// Indexer is what the IndexWorker feeds.
type Indexer interface {
	Apply(ctx context.Context, e event.DomainEvent) error
}

// IndexSink is subscribed to the hub like any session.
// It hands message events over to the IndexWorker without ever blocking the hub:
// when the buffer is full the event is dropped and the index lags behind.
type IndexSink struct {
	events chan<- event.DomainEvent
	log    *slog.Logger
}

func NewIndexSink(events chan<- event.DomainEvent, log *slog.Logger) IndexSink {
	return IndexSink{events: events, log: log}
}

func (s IndexSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch e.(type) {
	case event.MessageAppended, event.MessageEdited, event.MessagesCleared:
	default:
		return nil
	}
	select {
	case s.events <- e:
	default:
		s.log.Warn("Index buffer full, event lost", "event", e.Name())
	}
	return nil
}

// IndexWorker applies buffered events to the search index, one at a time and in arrival order.
type IndexWorker struct {
	indexer Indexer
	events  <-chan event.DomainEvent
	log     *slog.Logger
}

func NewIndexWorker(indexer Indexer, events <-chan event.DomainEvent, log *slog.Logger) *IndexWorker {
	return &IndexWorker{indexer: indexer, events: events, log: log}
}

func (w *IndexWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping index worker")
			return nil
		case e, ok := <-w.events:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			if err := w.indexer.Apply(ctx, e); err != nil {
				w.log.Error("Index update failed", "event", e.Name(), "error", err)
			}
		}
	}
}
