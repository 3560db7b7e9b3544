// Package domain contains core concepts of the chat system.
// This file defines Message entries and the rules around editing them.
// Messages are immutable except for their body, which only the author may change.
package domain

import (
	"fmt"
	"time"
)

type MessageKind int

const (
	KindChat MessageKind = iota
	KindSystem
)

func (k MessageKind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindSystem:
		return "system"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Message is one entry of a scope log.
// ID is dense within its scope and equals the log length at append time.
type Message struct {
	ID        int
	Author    string
	Body      string
	Kind      MessageKind
	Scope     Scope
	Lang      string
	CreatedAt time.Time
	EditedAt  *time.Time
}

// EditableBy reports whether requester may change the body of m.
func (m Message) EditableBy(requester string) bool {
	return m.Kind == KindChat && m.Author == requester
}

// Edited returns a copy of m with a new body stamped at the given time.
func (m Message) Edited(body string, at time.Time) Message {
	m.Body = body
	m.EditedAt = &at
	return m
}

func JoinedText(user string) string {
	return fmt.Sprintf("%s joined the room", user)
}

func LeftText(user string) string {
	return fmt.Sprintf("%s left the room", user)
}
