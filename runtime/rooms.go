package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	chaterrors "chat-hub/errors"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// RoomRegistry tracks known room names in creation order. Rooms are never deleted.
type RoomRegistry struct {
	mu         sync.Mutex
	names      []string
	known      map[string]struct{}
	repository contract.INameRepository
	hub        contract.IHub
	log        *slog.Logger
}

// NewRoomRegistry hydrates the registry from the persisted room list.
func NewRoomRegistry(repository contract.INameRepository, hub contract.IHub, log *slog.Logger) (*RoomRegistry, error) {
	names, err := repository.LoadNames()
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(names))
	for _, name := range names {
		known[name] = struct{}{}
	}
	log.Info("Rooms loaded", "count", len(names))
	return &RoomRegistry{names: names, known: known, repository: repository, hub: hub, log: log}, nil
}

// CreateRoom returns false, without error, when the room already exists.
// A creation emits the whole updated room list.
func (r *RoomRegistry) CreateRoom(ctx context.Context, name string) (bool, error) {
	name = domain.NormalizeName(name)
	if name == "" {
		return false, chaterrors.ErrEmptyInput
	}

	r.mu.Lock()
	if _, ok := r.known[name]; ok {
		r.mu.Unlock()
		return false, nil
	}
	next := append(slices.Clone(r.names), name)
	if err := r.repository.SaveNames(next); err != nil {
		r.mu.Unlock()
		return false, err
	}
	r.names = next
	r.known[name] = struct{}{}
	rooms := slices.Clone(next)
	r.mu.Unlock()

	r.log.Info("Room created", "room", name)
	r.hub.SendAll(ctx, event.RoomListChanged{Rooms: rooms, At: time.Now().UTC()})
	return true, nil
}

func (r *RoomRegistry) ListRooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.names)
}

func (r *RoomRegistry) Exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.known[domain.NormalizeName(name)]
	return ok
}
