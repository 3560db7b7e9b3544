//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives every event fanned out by the hub.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// SinkFunc adapts a plain function to an EventSink.
type SinkFunc func(ctx context.Context, e event.DomainEvent) error

func (f SinkFunc) Consume(ctx context.Context, e event.DomainEvent) error {
	return f(ctx, e)
}

// IHub is the broadcast surface shared by every component emitting events.
type IHub interface {
	Subscribe(session domain.SessionID, sink EventSink)
	Unsubscribe(session domain.SessionID)
	SendAll(ctx context.Context, e event.DomainEvent)
}

// KeyValueStore is the persistence contract. Get reports whether the key exists.
type KeyValueStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

type IMessageRepository interface {
	LoadLog(scope domain.Scope) ([]domain.Message, error)
	SaveLog(scope domain.Scope, messages []domain.Message) error
	RemoveLog(scope domain.Scope) error
}

// INameRepository persists an ordered list of names (rooms, users).
type INameRepository interface {
	LoadNames() ([]string, error)
	SaveNames(names []string) error
}

// IMessageStore is what the presence directory needs from the message store.
type IMessageStore interface {
	Append(ctx context.Context, scope domain.Scope, author, body string, kind domain.MessageKind) (domain.Message, error)
}

// IRoomRegistry is what the presence directory needs from the room registry.
type IRoomRegistry interface {
	CreateRoom(ctx context.Context, name string) (bool, error)
}

// IModerator rewrites forbidden words of a chat body and reports which ones it found.
type IModerator interface {
	Censor(original string) (string, []string)
}
