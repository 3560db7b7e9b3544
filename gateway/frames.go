package gateway

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	chaterrors "chat-hub/errors"
	"errors"
	"time"

	"github.com/samber/lo"
)

const (
	OpRegister     = "register"
	OpCreateRoom   = "create_room"
	OpListRooms    = "list_rooms"
	OpEnterRoom    = "enter_room"
	OpLeaveRoom    = "leave_room"
	OpEnterPrivate = "enter_private"
	OpSend         = "send"
	OpEdit         = "edit"
	OpClear        = "clear"
	OpFetch        = "fetch"
	OpSearch       = "search"
	// OpView returns the connection's timeline without reading the store.
	OpView         = "view"

	TypeReply = "reply"
	TypeError = "error"
)

var errSlowConnection = errors.New("connection buffer full")

// Command is one client request. Name carries a user, room or peer name depending on Op.
type Command struct {
	Op   string `json:"op"`
	Name string `json:"name,omitempty"`
	ID   int    `json:"id,omitempty"`
	Body string `json:"body,omitempty"`
	Text string `json:"text,omitempty"`
}

type MessageView struct {
	ID        int        `json:"id"`
	Author    string     `json:"author"`
	Body      string     `json:"body"`
	Kind      string     `json:"kind"`
	Lang      string     `json:"lang,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// Frame is everything the server writes: replies, errors and forwarded events.
type Frame struct {
	Type     string        `json:"type"`
	Op       string        `json:"op,omitempty"`
	Code     string        `json:"code,omitempty"`
	Error    string        `json:"error,omitempty"`
	Session  string        `json:"session,omitempty"`
	Scope    string        `json:"scope,omitempty"`
	Created  *bool         `json:"created,omitempty"`
	Message  *MessageView  `json:"message,omitempty"`
	Messages []MessageView `json:"messages,omitempty"`
	Rooms    []string      `json:"rooms,omitempty"`
	Users    []string      `json:"users,omitempty"`
}

func toMessageView(m domain.Message) MessageView {
	return MessageView{
		ID:        m.ID,
		Author:    m.Author,
		Body:      m.Body,
		Kind:      m.Kind.String(),
		Lang:      m.Lang,
		CreatedAt: m.CreatedAt,
		EditedAt:  m.EditedAt,
	}
}

func toMessageViews(messages []domain.Message) []MessageView {
	return lo.Map(messages, func(m domain.Message, _ int) MessageView { return toMessageView(m) })
}

func toEventFrame(e event.DomainEvent) Frame {
	frame := Frame{Type: e.Name()}
	switch evt := e.(type) {
	case event.MessageAppended:
		frame.Scope = evt.Scope.Key()
		frame.Message = lo.ToPtr(toMessageView(evt.Message))
	case event.MessageEdited:
		frame.Scope = evt.Scope.Key()
		frame.Message = lo.ToPtr(toMessageView(evt.Message))
	case event.MessagesCleared:
		frame.Scope = evt.Scope.Key()
	case event.RoomListChanged:
		frame.Rooms = evt.Rooms
	case event.PresenceChanged:
		frame.Users = evt.Users
	}
	return frame
}

func toErrorFrame(op string, err error) Frame {
	return Frame{Type: TypeError, Op: op, Code: errorCode(err), Error: err.Error()}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, chaterrors.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, chaterrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, chaterrors.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, chaterrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, chaterrors.ErrForbidden):
		return "forbidden"
	case errors.Is(err, chaterrors.ErrUnknownSession):
		return "unknown_session"
	case errors.Is(err, chaterrors.ErrSearchDisabled):
		return "search_disabled"
	default:
		return "internal"
	}
}
