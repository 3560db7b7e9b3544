package domain

import (
	"fmt"
	"sort"
	"strings"
)

type ScopeKind int

const (
	ScopePublic ScopeKind = iota
	ScopePrivate
)

const (
	roomKeyPrefix    = "room:"
	privateKeyPrefix = "dm:"
	pairSeparator    = "|"
)

// Scope addresses a message partition: a public room log or a private pair log.
// Private scopes always hold their pair in sorted order.
type Scope struct {
	Kind  ScopeKind
	Room  string
	Peers [2]string
}

func PublicScope(room string) Scope {
	return Scope{Kind: ScopePublic, Room: room}
}

// PrivateScope builds the canonical pair scope, so PrivateScope(a, b) == PrivateScope(b, a).
func PrivateScope(a, b string) Scope {
	pair := []string{a, b}
	sort.Strings(pair)
	return Scope{Kind: ScopePrivate, Peers: [2]string{pair[0], pair[1]}}
}

func (s Scope) IsPrivate() bool { return s.Kind == ScopePrivate }

// Includes reports whether user is one of the two peers of a private scope.
func (s Scope) Includes(user string) bool {
	return s.IsPrivate() && (s.Peers[0] == user || s.Peers[1] == user)
}

// Peer returns the other member of a private scope.
func (s Scope) Peer(user string) string {
	if s.Peers[0] == user {
		return s.Peers[1]
	}
	return s.Peers[0]
}

// Key is the canonical storage and index key of the scope.
func (s Scope) Key() string {
	if s.IsPrivate() {
		return privateKeyPrefix + s.Peers[0] + pairSeparator + s.Peers[1]
	}
	return roomKeyPrefix + s.Room
}

func (s Scope) String() string { return s.Key() }

// ParseScope is the inverse of Scope.Key.
func ParseScope(key string) (Scope, error) {
	switch {
	case strings.HasPrefix(key, roomKeyPrefix):
		return PublicScope(strings.TrimPrefix(key, roomKeyPrefix)), nil
	case strings.HasPrefix(key, privateKeyPrefix):
		a, b, ok := strings.Cut(strings.TrimPrefix(key, privateKeyPrefix), pairSeparator)
		if !ok {
			return Scope{}, fmt.Errorf("malformed private scope key %q", key)
		}
		return PrivateScope(a, b), nil
	default:
		return Scope{}, fmt.Errorf("unknown scope key %q", key)
	}
}
