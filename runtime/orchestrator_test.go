package runtime_test

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/projection"
	"chat-hub/runtime"
	"chat-hub/search"
	"chat-hub/storage"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func Test_Orchestrator_restores_rooms_users_and_logs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := storage.NewMemoryStore()
	opts := runtime.Options{RejectEmptyBody: true, RejectDuplicateUsers: true, BufferSize: 8}

	// Arrange
	first, err := runtime.NewOrchestrator(log, store, opts)
	req.NoError(err)
	req.NoError(first.Presence.Register(ctx, "alice"))
	req.NoError(first.Presence.Attach("s1", "alice"))
	req.NoError(first.Presence.EnterRoom(ctx, "s1", "general"))

	// Act
	second, err := runtime.NewOrchestrator(log, store, opts)
	req.NoError(err)

	// Assert
	req.Equal([]string{"general"}, second.Rooms.ListRooms())
	req.Equal([]string{"alice"}, second.Presence.Users())
	messages, err := second.Messages.Fetch(ctx, domain.PublicScope("general"))
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("alice joined the room", messages[0].Body)

	// Sessions are not persisted
	_, err = second.Presence.Participant("s1")
	req.Error(err)
}

func Test_Orchestrator_feeds_the_search_index(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	index, err := search.NewIndex("", log)
	req.NoError(err)
	defer func() { _ = index.Close() }()

	orchestrator, err := runtime.NewOrchestrator(log, storage.NewMemoryStore(), runtime.Options{
		BufferSize:      8,
		RestartInterval: 10 * time.Millisecond,
		Index:           index,
	})
	req.NoError(err)
	req.Equal(1, orchestrator.Hub.Subscribers())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = orchestrator.Start(ctx)
	}()

	scope := domain.PrivateScope("alice", "bob")
	_, err = orchestrator.Messages.Append(ctx, scope, "alice", "meet at the station", domain.KindChat)
	req.NoError(err)

	req.Eventually(func() bool {
		hits, err := index.Search(ctx, scope, "station", 10)
		return err == nil && len(hits) == 1 && hits[0].ID == 0
	}, 2*time.Second, 20*time.Millisecond)

	// Clearing drops the scope from the index too
	req.NoError(orchestrator.Messages.Clear(ctx, scope))
	req.Eventually(func() bool {
		hits, err := index.Search(ctx, scope, "station", 10)
		return err == nil && len(hits) == 0
	}, 2*time.Second, 20*time.Millisecond)

	orchestrator.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not stop")
	}
	req.Zero(orchestrator.Hub.Subscribers())
}

func Test_Orchestrator_timeline_follows_concurrent_appends(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	orchestrator, err := runtime.NewOrchestrator(log, storage.NewMemoryStore(), runtime.Options{BufferSize: 8})
	req.NoError(err)

	// Arrange
	scope := domain.PublicScope("general")
	viewer := domain.Participant{Session: "s-viewer", User: "viewer", Location: domain.RoomLocation("general")}
	timeline := projection.NewTimeline()
	orchestrator.Hub.Subscribe(viewer.Session, contract.SinkFunc(func(_ context.Context, e event.DomainEvent) error {
		timeline.Apply(viewer, e)
		return nil
	}))

	// Act
	const writers, perWriter = 16, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := orchestrator.Messages.Append(ctx, scope, "alice", "hello", domain.KindChat); err != nil {
					t.Errorf("append: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	// Assert
	messages := timeline.Messages()
	req.Len(messages, writers*perWriter)
	for i, message := range messages {
		req.Equal(i, message.ID)
	}
}
