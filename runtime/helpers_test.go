package runtime

import (
	"chat-hub/domain/event"
	"chat-hub/storage"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// recorder is a sink remembering everything it received.
type recorder struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (r *recorder) Consume(_ context.Context, e event.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) received() []event.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.DomainEvent(nil), r.events...)
}

func (r *recorder) names() []string {
	var names []string
	for _, e := range r.received() {
		names = append(names, e.Name())
	}
	return names
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func newTestOrchestrator(t *testing.T, store *storage.MemoryStore) *Orchestrator {
	o, err := NewOrchestrator(testLogger(), store, Options{RejectEmptyBody: true, RejectDuplicateUsers: true, BufferSize: 16})
	require.NoError(t, err)
	return o
}
