package workers

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	mu      sync.Mutex
	applied []event.DomainEvent
	fail    bool
}

func (r *recordingIndexer) Apply(_ context.Context, e event.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, e)
	if r.fail {
		return fmt.Errorf("index unavailable")
	}
	return nil
}

func (r *recordingIndexer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

func TestIndexSink_DropsWhenFull_AndIgnoresOtherEvents(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	events := make(chan event.DomainEvent, 1)
	sink := NewIndexSink(events, log)
	scope := domain.PublicScope("lobby")

	// Given a room list change, which the index does not care about
	req.NoError(sink.Consume(context.Background(), event.RoomListChanged{Rooms: []string{"lobby"}}))
	req.Len(events, 0)

	// When two message events arrive with room for one
	req.NoError(sink.Consume(context.Background(), event.MessageAppended{Scope: scope}))
	req.NoError(sink.Consume(context.Background(), event.MessagesCleared{Scope: scope}))

	// Then the second one is dropped without blocking
	req.Len(events, 1)
	req.IsType(event.MessageAppended{}, <-events)
}

func TestIndexWorker_AppliesUntilCanceled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	events := make(chan event.DomainEvent, 4)
	indexer := &recordingIndexer{fail: true}
	worker := NewIndexWorker(indexer, events, log)
	scope := domain.PublicScope("lobby")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- worker.Run(ctx) }()

	// When events arrive, even if the index fails
	events <- event.MessageAppended{Scope: scope}
	events <- event.MessageEdited{Scope: scope}

	// Then every one of them is applied
	req.Eventually(func() bool { return indexer.count() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	req.NoError(<-done)
}
