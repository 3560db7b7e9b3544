package main

import (
	"chat-hub/domain"
	"chat-hub/repositories"
	"chat-hub/storage"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToRows(t *testing.T) {
	req := require.New(t)
	scope := domain.PrivateScope("Bob", "Alice")
	log := storage.EncodeMessageLog([]domain.Message{
		{ID: 0, Author: "Alice", Body: "hi", Kind: domain.KindChat, Scope: scope, CreatedAt: time.Now().UTC()},
	})

	rows := toRows(repositories.MessageKey(scope), log, false)
	req.Len(rows, 1)
	req.Equal([]string{"dm:Alice|Bob", "0", "chat", "Alice"}, rows[0][:4])
	req.Equal("hi", rows[0][7])

	rows = toRows(repositories.RoomsKey, storage.EncodeNames([]string{"general", "random"}), false)
	req.Equal("general, random", rows[0][7])
	req.Equal("", rows[0][2])
}
