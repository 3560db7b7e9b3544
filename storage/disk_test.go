package storage

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore_SetGetRemove(t *testing.T) {
	req := require.New(t)
	db, err := OpenBadger("", logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	defer db.Close()
	store := NewBadgerStore(db)

	// Given an unknown key
	_, found, err := store.Get("rooms")
	req.NoError(err)
	req.False(found)

	// When it is set
	req.NoError(store.Set("rooms", []byte("general")))

	// Then it is found
	value, found, err := store.Get("rooms")
	req.NoError(err)
	req.True(found)
	req.Equal([]byte("general"), value)

	// And removing it twice is fine
	req.NoError(store.Remove("rooms"))
	req.NoError(store.Remove("rooms"))
	_, found, err = store.Get("rooms")
	req.NoError(err)
	req.False(found)
}

func TestBadgerStore_SurvivesReopen(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	path := t.TempDir()

	db, err := OpenBadger(path, log)
	req.NoError(err)
	req.NoError(NewBadgerStore(db).Set("users", EncodeNames([]string{"Alice"})))
	req.NoError(db.Close())

	db, err = OpenBadger(path, log)
	req.NoError(err)
	defer db.Close()

	value, found, err := NewBadgerStore(db).Get("users")
	req.NoError(err)
	req.True(found)
	names, err := DecodeNames(value)
	req.NoError(err)
	req.Equal([]string{"Alice"}, names)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	req := require.New(t)
	store := NewMemoryStore()
	value := []byte("abc")

	req.NoError(store.Set("k", value))
	value[0] = 'z'

	got, found, err := store.Get("k")
	req.NoError(err)
	req.True(found)
	req.Equal([]byte("abc"), got)
	req.Equal([]string{"k"}, store.Keys())
}
