package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"sync"

	"github.com/samber/lo"
)

type subscription struct {
	session domain.SessionID
	sink    contract.EventSink
}

// Registry keeps the hub subscriptions in subscription order.
type Registry struct {
	mu       sync.RWMutex
	order    []domain.SessionID
	sessions map[domain.SessionID]contract.EventSink // map session -> Sink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]contract.EventSink)}
}

// Subscribe registers the sink of a session.
// Subscribing an already known session swaps its sink and keeps its place in the order.
func (r *Registry) Subscribe(session domain.SessionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session]; !ok {
		r.order = append(r.order, session)
	}
	r.sessions[session] = sink
}

// Unsubscribe removes a session. Unknown sessions are ignored.
func (r *Registry) Unsubscribe(session domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session]; !ok {
		return
	}
	delete(r.sessions, session)
	r.order = lo.Without(r.order, session)
}

// Snapshot copies the current subscriptions so delivery can happen without the lock.
func (r *Registry) Snapshot() []subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(session domain.SessionID, _ int) subscription {
		return subscription{session: session, sink: r.sessions[session]}
	})
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
