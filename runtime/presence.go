package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	chaterrors "chat-hub/errors"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// PresenceDirectory owns the registered user names and the location of every session.
// It is the only writer of session locations.
//
// Registration is a courtesy listing: it never gates who may post.
// Locations are swapped as a whole value, so a session is always in exactly one of
// lobby, room or private conversation.
type PresenceDirectory struct {
	mu               sync.RWMutex
	users            []string
	registered       map[string]struct{}
	sessions         map[domain.SessionID]domain.Participant
	repository       contract.INameRepository
	rooms            contract.IRoomRegistry
	store            contract.IMessageStore
	hub              contract.IHub
	log              *slog.Logger
	rejectDuplicates bool
}

func NewPresenceDirectory(repository contract.INameRepository, rooms contract.IRoomRegistry,
	store contract.IMessageStore, hub contract.IHub, log *slog.Logger, rejectDuplicates bool) (*PresenceDirectory, error) {
	users, err := repository.LoadNames()
	if err != nil {
		return nil, err
	}
	registered := make(map[string]struct{}, len(users))
	for _, user := range users {
		registered[user] = struct{}{}
	}
	return &PresenceDirectory{
		users:            users,
		registered:       registered,
		sessions:         make(map[domain.SessionID]domain.Participant),
		repository:       repository,
		rooms:            rooms,
		store:            store,
		hub:              hub,
		log:              log,
		rejectDuplicates: rejectDuplicates,
	}, nil
}

// Register adds a display name to the directory. Names are compared case-sensitively.
func (p *PresenceDirectory) Register(ctx context.Context, user string) error {
	user = domain.NormalizeName(user)
	if user == "" {
		return chaterrors.ErrEmptyInput
	}

	p.mu.Lock()
	if _, ok := p.registered[user]; ok {
		p.mu.Unlock()
		if p.rejectDuplicates {
			return fmt.Errorf("user %q: %w", user, chaterrors.ErrAlreadyExists)
		}
		return nil
	}
	next := append(slices.Clone(p.users), user)
	if err := p.repository.SaveNames(next); err != nil {
		p.mu.Unlock()
		return err
	}
	p.users = next
	p.registered[user] = struct{}{}
	users := slices.Clone(next)
	p.mu.Unlock()

	p.log.Info("User registered", "user", user)
	p.hub.SendAll(ctx, event.PresenceChanged{Users: users, At: time.Now().UTC()})
	return nil
}

func (p *PresenceDirectory) Users() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.users)
}

func (p *PresenceDirectory) IsRegistered(user string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.registered[user]
	return ok
}

// Attach opens the presence entry of a session, in the lobby.
func (p *PresenceDirectory) Attach(session domain.SessionID, user string) error {
	user = domain.NormalizeName(user)
	if user == "" {
		return chaterrors.ErrEmptyInput
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[session]; ok {
		return fmt.Errorf("session %s: %w", session, chaterrors.ErrAlreadyExists)
	}
	p.sessions[session] = domain.Participant{Session: session, User: user, Location: domain.Lobby()}
	return nil
}

// Detach announces the departure from the current room, if any, and forgets the session.
func (p *PresenceDirectory) Detach(ctx context.Context, session domain.SessionID) error {
	if err := p.LeaveRoom(ctx, session); err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.sessions, session)
	p.mu.Unlock()
	return nil
}

// EnterRoom moves a session into a room, creating the room on first use.
// The join announcement is appended before the location switches, so members
// already in the room see it first. Coming from another room announces the departure there.
func (p *PresenceDirectory) EnterRoom(ctx context.Context, session domain.SessionID, room string) error {
	room = domain.NormalizeName(room)
	if room == "" {
		return chaterrors.ErrEmptyInput
	}
	participant, err := p.Participant(session)
	if err != nil {
		return err
	}
	if _, err := p.rooms.CreateRoom(ctx, room); err != nil {
		return err
	}
	if err := p.announceDeparture(ctx, participant, room); err != nil {
		return err
	}
	if _, err := p.store.Append(ctx, domain.PublicScope(room), participant.User, domain.JoinedText(participant.User), domain.KindSystem); err != nil {
		return err
	}
	return p.move(session, domain.RoomLocation(room))
}

// LeaveRoom sends the session back to the lobby. It is a no-op outside a room.
func (p *PresenceDirectory) LeaveRoom(ctx context.Context, session domain.SessionID) error {
	participant, err := p.Participant(session)
	if err != nil {
		return err
	}
	if participant.Location.Kind != domain.InRoom {
		if participant.Location.Kind == domain.InPrivate {
			return p.move(session, domain.Lobby())
		}
		return nil
	}
	if err := p.announceDeparture(ctx, participant, ""); err != nil {
		return err
	}
	return p.move(session, domain.Lobby())
}

// EnterPrivate opens the conversation with peer. Nothing is announced to the peer.
func (p *PresenceDirectory) EnterPrivate(ctx context.Context, session domain.SessionID, peer string) error {
	peer = domain.NormalizeName(peer)
	if peer == "" {
		return chaterrors.ErrEmptyInput
	}
	participant, err := p.Participant(session)
	if err != nil {
		return err
	}
	if err := p.announceDeparture(ctx, participant, ""); err != nil {
		return err
	}
	return p.move(session, domain.PrivateLocation(peer))
}

func (p *PresenceDirectory) Location(session domain.SessionID) (domain.Location, error) {
	participant, err := p.Participant(session)
	return participant.Location, err
}

func (p *PresenceDirectory) Participant(session domain.SessionID) (domain.Participant, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	participant, ok := p.sessions[session]
	if !ok {
		return domain.Participant{}, fmt.Errorf("session %s: %w", session, chaterrors.ErrUnknownSession)
	}
	return participant, nil
}

// announceDeparture appends the leave message of the room the participant is in,
// unless it is the room it is about to enter again.
func (p *PresenceDirectory) announceDeparture(ctx context.Context, participant domain.Participant, nextRoom string) error {
	location := participant.Location
	if location.Kind != domain.InRoom || location.Room == nextRoom {
		return nil
	}
	_, err := p.store.Append(ctx, domain.PublicScope(location.Room), participant.User, domain.LeftText(participant.User), domain.KindSystem)
	return err
}

func (p *PresenceDirectory) move(session domain.SessionID, location domain.Location) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	participant, ok := p.sessions[session]
	if !ok {
		return fmt.Errorf("session %s: %w", session, chaterrors.ErrUnknownSession)
	}
	participant.Location = location
	p.sessions[session] = participant
	p.log.Debug("Session moved", "session", session, "user", participant.User, "location", location.Kind)
	return nil
}
