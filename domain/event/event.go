package event

import (
	"chat-hub/domain"
	"time"
)

const (
	MessageAppendedName = "message_appended"
	MessageEditedName   = "message_edited"
	MessagesClearedName = "messages_cleared"
	RoomListChangedName = "room_list_changed"
	PresenceChangedName = "presence_changed"
)

// DomainEvent is everything the hub fans out.
type DomainEvent interface {
	Name() string
	OccurredAt() time.Time
}

// ScopedEvent is a DomainEvent bound to one message scope.
// Subscribers use it to discard events for scopes they are not viewing.
type ScopedEvent interface {
	DomainEvent
	EventScope() domain.Scope
}

type MessageAppended struct {
	Scope   domain.Scope
	Message domain.Message
	At      time.Time
}

func (e MessageAppended) Name() string { return MessageAppendedName }
func (e MessageAppended) OccurredAt() time.Time { return e.At }
func (e MessageAppended) EventScope() domain.Scope { return e.Scope }

type MessageEdited struct {
	Scope   domain.Scope
	Message domain.Message
	At      time.Time
}

func (e MessageEdited) Name() string { return MessageEditedName }
func (e MessageEdited) OccurredAt() time.Time { return e.At }
func (e MessageEdited) EventScope() domain.Scope { return e.Scope }

type MessagesCleared struct {
	Scope domain.Scope
	At    time.Time
}

func (e MessagesCleared) Name() string { return MessagesClearedName }
func (e MessagesCleared) OccurredAt() time.Time { return e.At }
func (e MessagesCleared) EventScope() domain.Scope { return e.Scope }

// RoomListChanged carries the full room list, not a delta.
type RoomListChanged struct {
	Rooms []string
	At    time.Time
}

func (e RoomListChanged) Name() string { return RoomListChangedName }
func (e RoomListChanged) OccurredAt() time.Time { return e.At }

// PresenceChanged carries the full registered user list.
type PresenceChanged struct {
	Users []string
	At    time.Time
}

func (e PresenceChanged) Name() string { return PresenceChangedName }
func (e PresenceChanged) OccurredAt() time.Time { return e.At }
