package repositories

import (
	"chat-hub/contract"
	"chat-hub/storage"
	"fmt"
)

const (
	RoomsKey = "rooms"
	UsersKey = "users"
)

// NameRepository persists an ordered list of names under a single key.
// Rooms and registered users both use it.
type NameRepository struct {
	store contract.KeyValueStore
	key   string
}

func NewNameRepository(store contract.KeyValueStore, key string) NameRepository {
	return NameRepository{store: store, key: key}
}

func NewRoomRepository(store contract.KeyValueStore) NameRepository {
	return NewNameRepository(store, RoomsKey)
}

func NewUserRepository(store contract.KeyValueStore) NameRepository {
	return NewNameRepository(store, UsersKey)
}

func (n NameRepository) LoadNames() ([]string, error) {
	value, found, err := n.store.Get(n.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", n.key, err)
	}
	if !found {
		return nil, nil
	}
	return storage.DecodeNames(value)
}

func (n NameRepository) SaveNames(names []string) error {
	if err := n.store.Set(n.key, storage.EncodeNames(names)); err != nil {
		return fmt.Errorf("save %s: %w", n.key, err)
	}
	return nil
}
