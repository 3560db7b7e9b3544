package gateway

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/projection"
	"context"
)

// Sink is the hub subscription of one websocket connection.
// It renders events into the connection's timeline and queues the ones the
// session should see for the connection writer.
type Sink struct {
	events chan event.DomainEvent
	view   *projection.Timeline
	locate func() (domain.Participant, error)
}

// NewSink builds the sink of a session. locate returns where the session stands
// at the time an event is delivered.
func NewSink(bufferSize int, locate func() (domain.Participant, error)) *Sink {
	return &Sink{
		events: make(chan event.DomainEvent, bufferSize),
		view:   projection.NewTimeline(),
		locate: locate,
	}
}

// Consume never blocks the hub. A connection too slow to keep up loses events
// and catches up with a fetch.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	viewer, err := s.locate()
	if err != nil {
		// Not attached yet, or already gone.
		return nil
	}
	if !s.view.Apply(viewer, e) {
		return nil
	}
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errSlowConnection
	}
}
