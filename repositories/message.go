package repositories

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/storage"
	"fmt"
	"log/slog"
)

const MessagePrefix = "msg:"

// MessageRepository keeps one value per scope holding the whole ordered log.
// The key is formatted as "msg:{scope_key}", e.g. "msg:room:general" or "msg:dm:Alice|Bob".
type MessageRepository struct {
	store contract.KeyValueStore
	log   *slog.Logger
}

func NewMessageRepository(store contract.KeyValueStore, log *slog.Logger) MessageRepository {
	return MessageRepository{store: store, log: log}
}

func MessageKey(scope domain.Scope) string {
	return MessagePrefix + scope.Key()
}

// LoadLog returns the persisted log of a scope, empty when nothing was stored yet.
func (m MessageRepository) LoadLog(scope domain.Scope) ([]domain.Message, error) {
	value, found, err := m.store.Get(MessageKey(scope))
	if err != nil {
		return nil, fmt.Errorf("load log %s: %w", scope, err)
	}
	if !found {
		return nil, nil
	}
	messages, err := storage.DecodeMessageLog(scope, value)
	if err != nil {
		return nil, err
	}
	m.log.Debug("Log hydrated", "scope", scope.Key(), "messages", len(messages))
	return messages, nil
}

func (m MessageRepository) SaveLog(scope domain.Scope, messages []domain.Message) error {
	if err := m.store.Set(MessageKey(scope), storage.EncodeMessageLog(messages)); err != nil {
		return fmt.Errorf("save log %s: %w", scope, err)
	}
	return nil
}

func (m MessageRepository) RemoveLog(scope domain.Scope) error {
	if err := m.store.Remove(MessageKey(scope)); err != nil {
		return fmt.Errorf("remove log %s: %w", scope, err)
	}
	return nil
}
