package services

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	chaterrors "chat-hub/errors"
	"chat-hub/runtime"
	"chat-hub/search"
	"chat-hub/storage"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type inbox struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (i *inbox) Consume(_ context.Context, e event.DomainEvent) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events = append(i.events, e)
	return nil
}

func (i *inbox) appended() []domain.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	return lo.FilterMap(i.events, func(e event.DomainEvent, _ int) (domain.Message, bool) {
		evt, ok := e.(event.MessageAppended)
		return evt.Message, ok
	})
}

var _ contract.EventSink = (*inbox)(nil)

func newTestService(t *testing.T, opts runtime.Options) *ChatService {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	o, err := runtime.NewOrchestrator(log, storage.NewMemoryStore(), opts)
	require.NoError(t, err)
	return NewChatService(o, 200, 10)
}

func strictOptions() runtime.Options {
	return runtime.Options{RejectEmptyBody: true, RejectDuplicateUsers: true, BufferSize: 16}
}

func TestChatService_AliceAndBob(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service := newTestService(t, strictOptions())
	general := domain.PublicScope("general")
	aliceInbox, bobInbox := &inbox{}, &inbox{}

	// Given Alice registered and connected
	req.NoError(service.Register(ctx, "Alice"))
	req.NoError(service.Connect("s-alice", "Alice", aliceInbox))

	// When Alice creates the room twice, then enters it
	created, err := service.CreateRoom(ctx, "general")
	req.NoError(err)
	req.True(created)
	created, err = service.CreateRoom(ctx, " general ")
	req.NoError(err)
	req.False(created)
	req.NoError(service.EnterRoom(ctx, "s-alice", "general"))

	// Then the room is listed once and the join message is id 0
	req.Equal([]string{"general"}, service.ListRooms())
	messages, err := service.Fetch(ctx, general)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(0, messages[0].ID)
	req.Equal(domain.KindSystem, messages[0].Kind)
	req.Equal("Alice joined the room", messages[0].Body)

	// When Alice says hi
	hi, err := service.Send(ctx, general, "Alice", "hi")
	req.NoError(err)
	req.Equal(1, hi.ID)

	// And Bob joins
	req.NoError(service.Register(ctx, "Bob"))
	req.NoError(service.Connect("s-bob", "Bob", bobInbox))
	req.NoError(service.EnterRoom(ctx, "s-bob", "general"))

	messages, err = service.Fetch(ctx, general)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("Bob joined the room", messages[2].Body)
	req.Equal(2, messages[2].ID)

	// Then Bob cannot edit Alice's message
	_, err = service.Edit(ctx, general, hi.ID, "bye", "Bob")
	req.ErrorIs(err, chaterrors.ErrForbidden)

	// But Alice can
	edited, err := service.Edit(ctx, general, hi.ID, "hello", "Alice")
	req.NoError(err)
	req.Equal("hello", edited.Body)
	req.NotNil(edited.EditedAt)

	// When Alice and Bob talk privately
	req.NoError(service.EnterPrivate(ctx, "s-alice", "Bob"))
	private := domain.PrivateScope("Bob", "Alice")
	secret, err := service.Send(ctx, private, "Alice", "secret")
	req.NoError(err)

	// Then the private log starts at 0 and the room log is untouched
	req.Equal(0, secret.ID)
	messages, err = service.Fetch(ctx, general)
	req.NoError(err)
	req.Len(messages, 4)
	req.Equal("Alice left the room", messages[3].Body)

	// And every session saw every append, including its own
	req.Len(aliceInbox.appended(), 5)
	req.Len(bobInbox.appended(), 3)
	req.Equal("secret", bobInbox.appended()[2].Body)

	participant, err := service.Participant("s-alice")
	req.NoError(err)
	req.Equal(domain.InPrivate, participant.Location.Kind)
	req.Equal("Bob", participant.Location.Peer)
	req.ElementsMatch([]string{"Alice", "Bob"}, service.Users())
}

func TestChatService_Disconnect(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service := newTestService(t, strictOptions())
	aliceInbox, bobInbox := &inbox{}, &inbox{}

	req.NoError(service.Connect("s-alice", "Alice", aliceInbox))
	req.NoError(service.Connect("s-bob", "Bob", bobInbox))
	req.NoError(service.EnterRoom(ctx, "s-alice", "general"))
	req.NoError(service.EnterRoom(ctx, "s-bob", "general"))

	// When Bob disconnects
	req.NoError(service.Disconnect(ctx, "s-bob"))

	// Then Alice sees the departure and Bob, already unsubscribed, does not
	last := aliceInbox.appended()[len(aliceInbox.appended())-1]
	req.Equal("Bob left the room", last.Body)
	req.Equal([]string{"Alice joined the room", "Bob joined the room"}, lo.Map(bobInbox.appended(), func(m domain.Message, _ int) string { return m.Body }))

	_, err := service.Participant("s-bob")
	req.ErrorIs(err, chaterrors.ErrUnknownSession)
}

func TestChatService_Validation(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, strictOptions())
	general := domain.PublicScope("general")

	tests := []struct {
		description string
		call        func() error
		want        error
	}{
		{
			"Should reject a blank user name",
			func() error { return service.Register(ctx, "   ") },
			chaterrors.ErrEmptyInput,
		},
		{
			"Should reject a user name containing a pipe",
			func() error { return service.Register(ctx, "Alice|Bob") },
			chaterrors.ErrInvalidInput,
		},
		{
			"Should reject a room name too long",
			func() error {
				_, err := service.CreateRoom(ctx, strings.Repeat("r", 65))
				return err
			},
			chaterrors.ErrInvalidInput,
		},
		{
			"Should reject a body too long",
			func() error {
				_, err := service.Send(ctx, general, "Alice", strings.Repeat("x", 201))
				return err
			},
			chaterrors.ErrInvalidInput,
		},
		{
			"Should reject an empty body",
			func() error {
				_, err := service.Send(ctx, general, "Alice", "  ")
				return err
			},
			chaterrors.ErrEmptyInput,
		},
		{
			"Should reject a message without an author",
			func() error {
				_, err := service.Send(ctx, general, "", "x")
				return err
			},
			chaterrors.ErrEmptyInput,
		},
		{
			"Should reject an edit without a requester",
			func() error {
				_, err := service.Edit(ctx, general, 0, "x", " ")
				return err
			},
			chaterrors.ErrEmptyInput,
		},
		{
			"Should reject a duplicate user",
			func() error {
				if err := service.Register(ctx, "Carol"); err != nil {
					return err
				}
				return service.Register(ctx, "Carol")
			},
			chaterrors.ErrAlreadyExists,
		},
		{
			"Should reject an unknown session",
			func() error { return service.EnterRoom(ctx, "ghost", "general") },
			chaterrors.ErrUnknownSession,
		},
		{
			"Should refuse search without an index",
			func() error {
				_, err := service.Search(ctx, general, "hi")
				return err
			},
			chaterrors.ErrSearchDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require.ErrorIs(t, tt.call(), tt.want)
		})
	}
}

func TestChatService_Search(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	index, err := search.NewIndex("", log)
	req.NoError(err)
	defer func() { _ = index.Close() }()

	opts := strictOptions()
	opts.Index = index
	opts.RestartInterval = 10 * time.Millisecond
	o, err := runtime.NewOrchestrator(log, storage.NewMemoryStore(), opts)
	req.NoError(err)
	service := NewChatService(o, 200, 10)
	go func() { _ = o.Start(ctx) }()
	defer o.Stop()

	general := domain.PublicScope("general")
	_, err = service.Send(ctx, general, "Alice", "the weather is lovely")
	req.NoError(err)
	_, err = service.Send(ctx, general, "Bob", "pizza tonight?")
	req.NoError(err)

	// Then the matching message is found once indexed
	req.Eventually(func() bool {
		found, err := service.Search(ctx, general, "weather")
		return err == nil && len(found) == 1 && found[0].Author == "Alice"
	}, 2*time.Second, 20*time.Millisecond)

	_, err = service.Search(ctx, general, " ")
	req.ErrorIs(err, chaterrors.ErrEmptyInput)
}

func TestChatService_Search_SkipsEntriesOfClearedLog(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	index, err := search.NewIndex("", log)
	req.NoError(err)
	defer func() { _ = index.Close() }()

	opts := strictOptions()
	opts.Index = index
	o, err := runtime.NewOrchestrator(log, storage.NewMemoryStore(), opts)
	req.NoError(err)
	service := NewChatService(o, 200, 10)
	general := domain.PublicScope("general")

	// Given the index still holds message 0 of a log cleared since
	stale := domain.Message{ID: 0, Author: "Alice", Body: "the weather is lovely", Kind: domain.KindChat, Scope: general, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	req.NoError(index.Apply(ctx, event.MessageAppended{Scope: general, Message: stale}))

	// When a new message takes id 0
	fresh, err := service.Send(ctx, general, "Bob", "pizza tonight?")
	req.NoError(err)
	req.Equal(0, fresh.ID)

	// Then the stale entry does not resolve to it
	found, err := service.Search(ctx, general, "weather")
	req.NoError(err)
	req.Empty(found)

	// And the entry of the live message does
	req.NoError(index.Apply(ctx, event.MessageAppended{Scope: general, Message: fresh}))
	found, err = service.Search(ctx, general, "pizza")
	req.NoError(err)
	req.Len(found, 1)
	req.Equal("Bob", found[0].Author)
}
