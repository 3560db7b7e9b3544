// Package runtime wires the room registry, message store, presence directory and hub together.
// It owns locking and fan-out, the rules themselves live in domain.
package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/repositories"
	"chat-hub/runtime/workers"
	"chat-hub/search"
	"context"
	"log/slog"
	"time"
)

// IndexSession is the hub subscription feeding the search index.
const IndexSession domain.SessionID = "sink:search"

type Options struct {
	RejectEmptyBody      bool
	RejectDuplicateUsers bool
	BufferSize           int
	RestartInterval      time.Duration
	// Moderator censors chat bodies when set.
	Moderator contract.IModerator
	// Index enables full-text search when set.
	Index *search.Index
}

// Orchestrator is the one service object of a process.
// Every session receives the same instance.
type Orchestrator struct {
	log        *slog.Logger
	Hub        *Hub
	Rooms      *RoomRegistry
	Messages   *MessageStore
	Presence   *PresenceDirectory
	Index      *search.Index
	supervisor contract.ISupervisor
}

// NewOrchestrator builds every component on top of store and hydrates rooms and users.
func NewOrchestrator(log *slog.Logger, store contract.KeyValueStore, opts Options) (*Orchestrator, error) {
	hub := NewHub(log)
	rooms, err := NewRoomRegistry(repositories.NewRoomRepository(store), hub, log)
	if err != nil {
		return nil, err
	}
	messages := NewMessageStore(repositories.NewMessageRepository(store, log), hub, opts.Moderator, log, opts.RejectEmptyBody)
	presence, err := NewPresenceDirectory(repositories.NewUserRepository(store), rooms, messages, hub, log, opts.RejectDuplicateUsers)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		log:        log,
		Hub:        hub,
		Rooms:      rooms,
		Messages:   messages,
		Presence:   presence,
		Index:      opts.Index,
		supervisor: workers.NewSupervisor(log, opts.RestartInterval),
	}

	if opts.Index != nil {
		indexEvents := make(chan event.DomainEvent, max(opts.BufferSize, 1))
		hub.Subscribe(IndexSession, workers.NewIndexSink(indexEvents, log))
		o.supervisor.Add(workers.NewIndexWorker(opts.Index, indexEvents, log))
	}
	return o, nil
}

// Start runs the background workers until ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.Hub.Unsubscribe(IndexSession)
	o.supervisor.Stop()
}
