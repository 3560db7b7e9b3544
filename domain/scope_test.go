package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPrivateScope_IsCanonical(t *testing.T) {
	req := require.New(t)

	// Given a conversation opened from both sides
	fromAlice := PrivateScope("Alice", "Bob")
	fromBob := PrivateScope("Bob", "Alice")

	// Then both address the same partition
	req.Equal(fromAlice, fromBob)
	req.Equal("dm:Alice|Bob", fromBob.Key())
	req.True(fromBob.Includes("Alice"))
	req.False(fromBob.Includes("Clara"))
	req.Equal("Bob", fromBob.Peer("Alice"))
}

func TestParseScope_RoundTrip(t *testing.T) {
	req := require.New(t)

	for _, scope := range []Scope{PublicScope("general"), PrivateScope("Zoe", "Adam")} {
		parsed, err := ParseScope(scope.Key())
		req.NoError(err)
		req.Equal(scope, parsed)
	}

	_, err := ParseScope("dm:lonely")
	req.Error(err)
	_, err = ParseScope("unknown")
	req.Error(err)
}

func TestLocation_Scope(t *testing.T) {
	req := require.New(t)

	_, ok := Lobby().Scope("Alice")
	req.False(ok)

	scope, ok := RoomLocation("lobby").Scope("Alice")
	req.True(ok)
	req.Equal(PublicScope("lobby"), scope)

	scope, ok = PrivateLocation("Alice").Scope("Bob")
	req.True(ok)
	req.Equal(PrivateScope("Alice", "Bob"), scope)
}

func TestMessage_EditableBy(t *testing.T) {
	req := require.New(t)
	msg := Message{ID: 1, Author: "Alice", Body: "hi", Kind: KindChat}

	req.True(msg.EditableBy("Alice"))
	req.False(msg.EditableBy("Bob"))

	msg.Kind = KindSystem
	req.False(msg.EditableBy("Alice"))
}

func TestMessage_Edited_KeepsIdentity(t *testing.T) {
	req := require.New(t)
	createdAt := time.Now().UTC()
	msg := Message{ID: 3, Author: "Alice", Body: "hi", CreatedAt: createdAt}

	at := createdAt.Add(time.Minute)
	edited := msg.Edited("hello", at)

	req.Equal(3, edited.ID)
	req.Equal("hello", edited.Body)
	req.Equal(createdAt, edited.CreatedAt)
	req.NotNil(edited.EditedAt)
	req.Equal(at, *edited.EditedAt)
	req.Nil(msg.EditedAt)
}
