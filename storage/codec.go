package storage

import (
	chaterrors "chat-hub/errors"
	"chat-hub/domain"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// FormatVersion is written first in every persisted value.
// Values carrying any other version are refused instead of being guessed at.
const FormatVersion = 1

const (
	versionField protowire.Number = 1
	entryField   protowire.Number = 2
)

const (
	messageIDField        protowire.Number = 1
	messageAuthorField    protowire.Number = 2
	messageBodyField      protowire.Number = 3
	messageKindField      protowire.Number = 4
	messageCreatedAtField protowire.Number = 5
	messageEditedAtField  protowire.Number = 6
	messageLangField      protowire.Number = 7
)

// EncodeMessageLog serializes a scope log. The scope itself lives in the key.
func EncodeMessageLog(messages []domain.Message) []byte {
	b := appendVersion(nil)
	for _, message := range messages {
		b = protowire.AppendTag(b, entryField, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeMessage(message))
	}
	return b
}

func DecodeMessageLog(scope domain.Scope, data []byte) ([]domain.Message, error) {
	var messages []domain.Message
	version, err := decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != entryField || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		message, err := decodeMessage(raw)
		if err != nil {
			return 0, err
		}
		message.Scope = scope
		messages = append(messages, message)
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode log %s: %w", scope, err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("decode log %s version %d: %w", scope, version, chaterrors.ErrUnsupportedVersion)
	}
	return messages, nil
}

func EncodeNames(names []string) []byte {
	b := appendVersion(nil)
	for _, name := range names {
		b = protowire.AppendTag(b, entryField, protowire.BytesType)
		b = protowire.AppendString(b, name)
	}
	return b
}

func DecodeNames(data []byte) ([]string, error) {
	var names []string
	version, err := decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != entryField || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		name, n := protowire.ConsumeString(b)
		if n >= 0 {
			names = append(names, name)
		}
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode names: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("decode names version %d: %w", version, chaterrors.ErrUnsupportedVersion)
	}
	return names, nil
}

func appendVersion(b []byte) []byte {
	b = protowire.AppendTag(b, versionField, protowire.VarintType)
	return protowire.AppendVarint(b, FormatVersion)
}

func encodeMessage(message domain.Message) []byte {
	var b []byte
	b = protowire.AppendTag(b, messageIDField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(message.ID))
	b = protowire.AppendTag(b, messageAuthorField, protowire.BytesType)
	b = protowire.AppendString(b, message.Author)
	b = protowire.AppendTag(b, messageBodyField, protowire.BytesType)
	b = protowire.AppendString(b, message.Body)
	b = protowire.AppendTag(b, messageKindField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(message.Kind))
	b = protowire.AppendTag(b, messageCreatedAtField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(message.CreatedAt.UnixNano()))
	if message.EditedAt != nil {
		b = protowire.AppendTag(b, messageEditedAtField, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(message.EditedAt.UnixNano()))
	}
	if message.Lang != "" {
		b = protowire.AppendTag(b, messageLangField, protowire.BytesType)
		b = protowire.AppendString(b, message.Lang)
	}
	return b
}

func decodeMessage(data []byte) (domain.Message, error) {
	var message domain.Message
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return domain.Message{}, protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case typ == protowire.VarintType && isVarintMessageField(num):
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return domain.Message{}, protowire.ParseError(m)
			}
			n = m
			switch num {
			case messageIDField:
				message.ID = int(v)
			case messageKindField:
				message.Kind = domain.MessageKind(v)
			case messageCreatedAtField:
				message.CreatedAt = time.Unix(0, protowire.DecodeZigZag(v)).UTC()
			case messageEditedAtField:
				editedAt := time.Unix(0, protowire.DecodeZigZag(v)).UTC()
				message.EditedAt = &editedAt
			}
		case typ == protowire.BytesType && isStringMessageField(num):
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return domain.Message{}, protowire.ParseError(m)
			}
			n = m
			switch num {
			case messageAuthorField:
				message.Author = s
			case messageBodyField:
				message.Body = s
			case messageLangField:
				message.Lang = s
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return domain.Message{}, protowire.ParseError(n)
			}
		}
		data = data[n:]
	}
	return message, nil
}

func isVarintMessageField(num protowire.Number) bool {
	switch num {
	case messageIDField, messageKindField, messageCreatedAtField, messageEditedAtField:
		return true
	}
	return false
}

func isStringMessageField(num protowire.Number) bool {
	switch num {
	case messageAuthorField, messageBodyField, messageLangField:
		return true
	}
	return false
}

// decodeFields walks the top level of a versioned value.
// visit consumes the value of every non-version field and returns how many bytes it used.
func decodeFields(data []byte, visit func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) (uint64, error) {
	var version uint64
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		data = data[n:]

		if num == versionField && typ == protowire.VarintType {
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return 0, protowire.ParseError(m)
			}
			version = v
			data = data[m:]
			continue
		}

		m, err := visit(num, typ, data)
		if err != nil {
			return 0, err
		}
		if m < 0 {
			return 0, protowire.ParseError(m)
		}
		data = data[m:]
	}
	return version, nil
}
