// Package search keeps a full-text index of chat messages.
// The index is fed from hub events and is eventually consistent with the message store.
package search

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blugelabs/bluge"
)

const (
	scopeField   = "scope"
	idField      = "message_id"
	bodyField    = "body"
	authorField  = "author"
	createdField = "created"
)

// Hit is one indexed message. Created is the creation stamp in unix nanoseconds,
// it tells a live message apart from a cleared one whose id was reused.
type Hit struct {
	ID      int
	Created int64
}

// Index wraps a bluge writer.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// NewIndex opens an on-disk index at path, or an in-memory one when path is empty.
func NewIndex(path string, log *slog.Logger) (*Index, error) {
	config := bluge.InMemoryOnlyConfig()
	if path != "" {
		config = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return &Index{writer: writer, log: log}, nil
}

func documentID(scope domain.Scope, id int) string {
	return scope.Key() + "#" + strconv.Itoa(id)
}

// Apply mirrors one hub event into the index.
func (i *Index) Apply(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAppended:
		return i.put(evt.Message)
	case event.MessageEdited:
		return i.put(evt.Message)
	case event.MessagesCleared:
		return i.drop(ctx, evt.Scope)
	default:
		return nil
	}
}

func (i *Index) put(message domain.Message) error {
	if message.Kind != domain.KindChat {
		return nil
	}
	doc := bluge.NewDocument(documentID(message.Scope, message.ID)).
		AddField(bluge.NewKeywordField(scopeField, message.Scope.Key()).StoreValue()).
		AddField(bluge.NewKeywordField(idField, strconv.Itoa(message.ID)).StoreValue()).
		AddField(bluge.NewKeywordField(createdField, strconv.FormatInt(message.CreatedAt.UnixNano(), 10)).StoreValue()).
		AddField(bluge.NewKeywordField(authorField, message.Author)).
		AddField(bluge.NewTextField(bodyField, message.Body))
	return i.writer.Update(doc.ID(), doc)
}

func (i *Index) drop(ctx context.Context, scope domain.Scope) error {
	hits, err := i.matching(ctx, bluge.NewTermQuery(scope.Key()).SetField(scopeField), 0)
	if err != nil {
		return err
	}
	batch := bluge.NewBatch()
	for _, hit := range hits {
		batch.Delete(bluge.Identifier(documentID(scope, hit.ID)))
	}
	i.log.Debug("Index entries dropped", "scope", scope.Key(), "count", len(hits))
	return i.writer.Batch(batch)
}

// Search returns the messages of scope matching text, best match first.
// Entries may be stale: callers check Created against the log.
func (i *Index) Search(ctx context.Context, scope domain.Scope, text string, limit int) ([]Hit, error) {
	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(scope.Key()).SetField(scopeField)).
		AddMust(bluge.NewMatchQuery(text).SetField(bodyField))
	return i.matching(ctx, query, limit)
}

// matching runs query and collects the stored fields of each match. A zero limit means every match.
func (i *Index) matching(ctx context.Context, query bluge.Query, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	if limit <= 0 {
		count, err := reader.Count()
		if err != nil {
			return nil, err
		}
		limit = int(count) + 1
	}

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}
	var hits []Hit
	match, err := iterator.Next()
	for err == nil && match != nil {
		var hit Hit
		var visitErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case idField:
				hit.ID, visitErr = strconv.Atoi(string(value))
			case createdField:
				hit.Created, visitErr = strconv.ParseInt(string(value), 10, 64)
			}
			return visitErr == nil
		})
		if err == nil {
			err = visitErr
		}
		if err == nil {
			hits = append(hits, hit)
			match, err = iterator.Next()
		}
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}
