package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	chaterrors "chat-hub/errors"
	"chat-hub/moderation"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// partition is the log of one scope. Its mutex serializes every writer of that scope.
type partition struct {
	mu       sync.Mutex
	loaded   bool
	messages []domain.Message
}

// MessageStore owns every scope log.
// Writes to the same scope are serialized, writes to different scopes run in parallel.
// Events are emitted once the scope lock is released.
type MessageStore struct {
	mu              sync.Mutex
	partitions      map[string]*partition
	repository      contract.IMessageRepository
	hub             contract.IHub
	moderator       contract.IModerator
	log             *slog.Logger
	rejectEmptyBody bool
	now             func() time.Time
}

// NewMessageStore builds a store. moderator may be nil.
func NewMessageStore(repository contract.IMessageRepository, hub contract.IHub,
	moderator contract.IModerator, log *slog.Logger, rejectEmptyBody bool) *MessageStore {
	return &MessageStore{
		partitions:      make(map[string]*partition),
		repository:      repository,
		hub:             hub,
		moderator:       moderator,
		log:             log,
		rejectEmptyBody: rejectEmptyBody,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Append adds a message at the end of the scope log.
// Its id is the number of messages already in the log.
func (s *MessageStore) Append(ctx context.Context, scope domain.Scope, author, body string, kind domain.MessageKind) (domain.Message, error) {
	body, err := s.prepareBody(body)
	if err != nil {
		return domain.Message{}, err
	}
	var lang string
	if kind == domain.KindChat {
		body = s.censor(author, body)
		lang = moderation.DetectLanguage(body)
	}

	p := s.partition(scope)
	p.mu.Lock()
	if err := s.hydrate(p, scope); err != nil {
		p.mu.Unlock()
		return domain.Message{}, err
	}
	message := domain.Message{
		ID:        len(p.messages),
		Author:    author,
		Body:      body,
		Kind:      kind,
		Scope:     scope,
		Lang:      lang,
		CreatedAt: s.now(),
	}
	next := append(slices.Clip(p.messages), message)
	if err := s.repository.SaveLog(scope, next); err != nil {
		p.mu.Unlock()
		s.log.Error("Message not persisted", "scope", scope.Key(), "error", err)
		return domain.Message{}, err
	}
	p.messages = next
	p.mu.Unlock()

	s.log.Debug("Message appended", "scope", scope.Key(), "id", message.ID, "kind", message.Kind.String())
	s.hub.SendAll(ctx, event.MessageAppended{Scope: scope, Message: message, At: message.CreatedAt})
	return message, nil
}

// Edit replaces the body of a chat message. Only its author may do it.
// A failed edit leaves the log untouched.
func (s *MessageStore) Edit(ctx context.Context, scope domain.Scope, id int, body, requester string) (domain.Message, error) {
	body, err := s.prepareBody(body)
	if err != nil {
		return domain.Message{}, err
	}

	p := s.partition(scope)
	p.mu.Lock()
	if err := s.hydrate(p, scope); err != nil {
		p.mu.Unlock()
		return domain.Message{}, err
	}
	if id < 0 || id >= len(p.messages) {
		p.mu.Unlock()
		return domain.Message{}, fmt.Errorf("message %d in %s: %w", id, scope, chaterrors.ErrNotFound)
	}
	if !p.messages[id].EditableBy(requester) {
		p.mu.Unlock()
		return domain.Message{}, fmt.Errorf("message %d in %s edited by %q: %w", id, scope, requester, chaterrors.ErrForbidden)
	}
	body = s.censor(requester, body)
	edited := p.messages[id].Edited(body, s.now())
	edited.Lang = moderation.DetectLanguage(body)

	next := slices.Clone(p.messages)
	next[id] = edited
	if err := s.repository.SaveLog(scope, next); err != nil {
		p.mu.Unlock()
		s.log.Error("Edit not persisted", "scope", scope.Key(), "id", id, "error", err)
		return domain.Message{}, err
	}
	p.messages = next
	p.mu.Unlock()

	s.log.Debug("Message edited", "scope", scope.Key(), "id", id)
	s.hub.SendAll(ctx, event.MessageEdited{Scope: scope, Message: edited, At: *edited.EditedAt})
	return edited, nil
}

// Clear empties the scope log for good. The next appended message gets id 0 again.
func (s *MessageStore) Clear(ctx context.Context, scope domain.Scope) error {
	p := s.partition(scope)
	p.mu.Lock()
	if err := s.repository.RemoveLog(scope); err != nil {
		p.mu.Unlock()
		return err
	}
	p.messages = nil
	p.loaded = true
	p.mu.Unlock()

	s.log.Info("Messages cleared", "scope", scope.Key())
	s.hub.SendAll(ctx, event.MessagesCleared{Scope: scope, At: s.now()})
	return nil
}

// Fetch returns a copy of the scope log in id order.
func (s *MessageStore) Fetch(_ context.Context, scope domain.Scope) ([]domain.Message, error) {
	p := s.partition(scope)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := s.hydrate(p, scope); err != nil {
		return nil, err
	}
	return slices.Clone(p.messages), nil
}

func (s *MessageStore) partition(scope domain.Scope) *partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scope.Key()
	p, ok := s.partitions[key]
	if !ok {
		p = &partition{}
		s.partitions[key] = p
	}
	return p
}

// hydrate loads the persisted log the first time a scope is touched. Caller holds p.mu.
func (s *MessageStore) hydrate(p *partition, scope domain.Scope) error {
	if p.loaded {
		return nil
	}
	messages, err := s.repository.LoadLog(scope)
	if err != nil {
		return err
	}
	p.messages = messages
	p.loaded = true
	return nil
}

func (s *MessageStore) prepareBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" && s.rejectEmptyBody {
		return "", chaterrors.ErrEmptyInput
	}
	return body, nil
}

func (s *MessageStore) censor(author, body string) string {
	if s.moderator == nil {
		return body
	}
	sanitized, found := s.moderator.Censor(body)
	if len(found) > 0 {
		s.log.Info("Message censored", "author", author, "words", len(found))
	}
	return sanitized
}
