package services

import (
	"chat-hub/contract"
	"chat-hub/domain"
	chaterrors "chat-hub/errors"
	"chat-hub/runtime"
	"chat-hub/search"
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type IChatService interface {
	Connect(session domain.SessionID, user string, sink contract.EventSink) error
	Disconnect(ctx context.Context, session domain.SessionID) error
	Register(ctx context.Context, user string) error
	Users() []string
	CreateRoom(ctx context.Context, name string) (bool, error)
	ListRooms() []string
	EnterRoom(ctx context.Context, session domain.SessionID, room string) error
	LeaveRoom(ctx context.Context, session domain.SessionID) error
	EnterPrivate(ctx context.Context, session domain.SessionID, peer string) error
	Send(ctx context.Context, scope domain.Scope, author, body string) (domain.Message, error)
	Edit(ctx context.Context, scope domain.Scope, id int, body, requester string) (domain.Message, error)
	Clear(ctx context.Context, scope domain.Scope) error
	Fetch(ctx context.Context, scope domain.Scope) ([]domain.Message, error)
	Search(ctx context.Context, scope domain.Scope, text string) ([]domain.Message, error)
	Participant(session domain.SessionID) (domain.Participant, error)
	Subscribe(session domain.SessionID, sink contract.EventSink)
	Unsubscribe(session domain.SessionID)
}

// ChatService is the surface a session gateway talks to.
// It validates input at the boundary and delegates to the orchestrator components.
type ChatService struct {
	orchestrator     *runtime.Orchestrator
	maxContentLength int
	searchLimit      int
}

func NewChatService(o *runtime.Orchestrator, maxContentLength, searchLimit int) *ChatService {
	return &ChatService{orchestrator: o, maxContentLength: maxContentLength, searchLimit: searchLimit}
}

// Connect opens the presence entry of a session and subscribes its sink.
func (s *ChatService) Connect(session domain.SessionID, user string, sink contract.EventSink) error {
	if err := ValidateName(user); err != nil {
		return err
	}
	if err := s.orchestrator.Presence.Attach(session, user); err != nil {
		return err
	}
	s.orchestrator.Hub.Subscribe(session, sink)
	return nil
}

// Disconnect stops deliveries first, then announces the departure to the others.
func (s *ChatService) Disconnect(ctx context.Context, session domain.SessionID) error {
	s.orchestrator.Hub.Unsubscribe(session)
	return s.orchestrator.Presence.Detach(ctx, session)
}

func (s *ChatService) Register(ctx context.Context, user string) error {
	if err := ValidateName(user); err != nil {
		return err
	}
	return s.orchestrator.Presence.Register(ctx, user)
}

func (s *ChatService) Users() []string {
	return s.orchestrator.Presence.Users()
}

func (s *ChatService) CreateRoom(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	return s.orchestrator.Rooms.CreateRoom(ctx, name)
}

func (s *ChatService) ListRooms() []string {
	return s.orchestrator.Rooms.ListRooms()
}

func (s *ChatService) EnterRoom(ctx context.Context, session domain.SessionID, room string) error {
	if err := ValidateName(room); err != nil {
		return err
	}
	return s.orchestrator.Presence.EnterRoom(ctx, session, room)
}

func (s *ChatService) LeaveRoom(ctx context.Context, session domain.SessionID) error {
	return s.orchestrator.Presence.LeaveRoom(ctx, session)
}

func (s *ChatService) EnterPrivate(ctx context.Context, session domain.SessionID, peer string) error {
	if err := ValidateName(peer); err != nil {
		return err
	}
	return s.orchestrator.Presence.EnterPrivate(ctx, session, peer)
}

// Send appends a chat message. Any self-asserted author may post.
func (s *ChatService) Send(ctx context.Context, scope domain.Scope, author, body string) (domain.Message, error) {
	if err := ValidateName(author); err != nil {
		return domain.Message{}, err
	}
	if err := ValidateBody(body, s.maxContentLength); err != nil {
		return domain.Message{}, err
	}
	return s.orchestrator.Messages.Append(ctx, scope, author, body, domain.KindChat)
}

func (s *ChatService) Edit(ctx context.Context, scope domain.Scope, id int, body, requester string) (domain.Message, error) {
	if err := ValidateName(requester); err != nil {
		return domain.Message{}, err
	}
	if err := ValidateBody(body, s.maxContentLength); err != nil {
		return domain.Message{}, err
	}
	return s.orchestrator.Messages.Edit(ctx, scope, id, body, requester)
}

func (s *ChatService) Clear(ctx context.Context, scope domain.Scope) error {
	return s.orchestrator.Messages.Clear(ctx, scope)
}

func (s *ChatService) Fetch(ctx context.Context, scope domain.Scope) ([]domain.Message, error) {
	return s.orchestrator.Messages.Fetch(ctx, scope)
}

// Search looks up chat messages of scope by content, best match first.
// Hits the log no longer holds are skipped, and so are hits left over from a
// cleared log whose id now belongs to a newer message.
func (s *ChatService) Search(ctx context.Context, scope domain.Scope, text string) ([]domain.Message, error) {
	if s.orchestrator.Index == nil {
		return nil, chaterrors.ErrSearchDisabled
	}
	if strings.TrimSpace(text) == "" {
		return nil, chaterrors.ErrEmptyInput
	}
	hits, err := s.orchestrator.Index.Search(ctx, scope, text, s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", scope, err)
	}
	messages, err := s.orchestrator.Messages.Fetch(ctx, scope)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(hits, func(hit search.Hit, _ int) (domain.Message, bool) {
		if hit.ID < 0 || hit.ID >= len(messages) {
			return domain.Message{}, false
		}
		message := messages[hit.ID]
		return message, message.CreatedAt.UnixNano() == hit.Created
	}), nil
}

func (s *ChatService) Participant(session domain.SessionID) (domain.Participant, error) {
	return s.orchestrator.Presence.Participant(session)
}

func (s *ChatService) Subscribe(session domain.SessionID, sink contract.EventSink) {
	s.orchestrator.Hub.Subscribe(session, sink)
}

func (s *ChatService) Unsubscribe(session domain.SessionID) {
	s.orchestrator.Hub.Unsubscribe(session)
}
