// Package projection builds local timelines from observed events.
// The hub delivers everything to everyone, projections keep what the viewer is looking at.
// Does not emit events or interact with UI directly.
package projection

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"slices"
	"sync"
)

// Relevant reports whether a viewer standing at location should render e.
// Room list and presence updates are always relevant.
func Relevant(user string, location domain.Location, e event.DomainEvent) bool {
	scoped, ok := e.(event.ScopedEvent)
	if !ok {
		return true
	}
	scope, ok := location.Scope(user)
	return ok && scope == scoped.EventScope()
}

// Timeline holds the rendered log of the scope one viewer is looking at.
//
// Messages sit at the index of their id: appends emitted concurrently for one
// scope may be observed out of order, and a later one leaves a gap until the
// earlier one arrives.
type Timeline struct {
	mu      sync.Mutex
	scope   domain.Scope
	viewing bool
	slots   []*domain.Message
	rooms   []string
	users   []string
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Apply renders e for a viewer at the moment it is delivered and reports whether
// the viewer should see it. A scoped event for the scope the viewer now stands in
// switches the timeline to that scope.
func (t *Timeline) Apply(viewer domain.Participant, e event.DomainEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt := e.(type) {
	case event.RoomListChanged:
		t.rooms = slices.Clone(evt.Rooms)
		return true
	case event.PresenceChanged:
		t.users = slices.Clone(evt.Users)
		return true
	}

	if !Relevant(viewer.User, viewer.Location, e) {
		return false
	}
	scoped, ok := e.(event.ScopedEvent)
	if !ok {
		return true
	}
	if !t.viewing || t.scope != scoped.EventScope() {
		t.scope = scoped.EventScope()
		t.viewing = true
		t.slots = nil
	}
	switch evt := e.(type) {
	case event.MessageAppended:
		t.place(evt.Message)
	case event.MessageEdited:
		t.place(evt.Message)
	case event.MessagesCleared:
		t.slots = nil
	}
	return true
}

// Show switches the timeline to scope, hydrated with the fetched log.
// Entries already observed for the same scope are kept unless the fetched copy is newer.
func (t *Timeline) Show(scope domain.Scope, messages []domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.viewing || t.scope != scope {
		t.scope = scope
		t.viewing = true
		t.slots = nil
	}
	for _, message := range messages {
		if current := t.at(message.ID); current == nil || newer(message, *current) {
			t.place(message)
		}
	}
}

// Hide returns the timeline to the lobby.
func (t *Timeline) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewing = false
	t.slots = nil
}

func (t *Timeline) place(message domain.Message) {
	if message.ID < 0 {
		return
	}
	if message.ID >= len(t.slots) {
		t.slots = append(t.slots, make([]*domain.Message, message.ID+1-len(t.slots))...)
	}
	t.slots[message.ID] = &message
}

func (t *Timeline) at(id int) *domain.Message {
	if id < 0 || id >= len(t.slots) {
		return nil
	}
	return t.slots[id]
}

func newer(candidate, current domain.Message) bool {
	if candidate.EditedAt == nil {
		return false
	}
	return current.EditedAt == nil || candidate.EditedAt.After(*current.EditedAt)
}

// Scope returns the scope shown, false in the lobby.
func (t *Timeline) Scope() (domain.Scope, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scope, t.viewing
}

// Messages returns the rendered log in id order. Ids not observed yet are skipped.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	messages := make([]domain.Message, 0, len(t.slots))
	for _, slot := range t.slots {
		if slot != nil {
			messages = append(messages, *slot)
		}
	}
	return messages
}

func (t *Timeline) Rooms() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.rooms)
}

func (t *Timeline) Users() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.users)
}
