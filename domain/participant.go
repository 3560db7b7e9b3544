// Package domain contains core concepts of the chat system.
// This file defines Participant sessions and where they currently are.
// No runtime, network, or UI logic should be added here.
package domain

type SessionID string

type LocationKind int

const (
	InLobby LocationKind = iota
	InRoom
	InPrivate
)

// Location is where a session currently looks at.
// A single value carries either a room, a private peer, or nothing.
type Location struct {
	Kind LocationKind
	Room string
	Peer string
}

func Lobby() Location { return Location{Kind: InLobby} }

func RoomLocation(room string) Location { return Location{Kind: InRoom, Room: room} }

func PrivateLocation(peer string) Location { return Location{Kind: InPrivate, Peer: peer} }

// Scope resolves the message scope a location shows for user.
// The lobby shows no scope.
func (l Location) Scope(user string) (Scope, bool) {
	switch l.Kind {
	case InRoom:
		return PublicScope(l.Room), true
	case InPrivate:
		return PrivateScope(user, l.Peer), true
	default:
		return Scope{}, false
	}
}

// Participant is the presence entry of one connected session.
type Participant struct {
	Session  SessionID
	User     string
	Location Location
}
