package runtime

import (
	"mcserve/contract"
	"sync"
)

// Registry tracks the live subscribers of the event stream (status page
// clients). The fanout asks it for the current sinks on every event.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink // map subscriber -> Sink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
	}
}

func (r *Registry) Subscribe(subscriberID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[subscriberID] = sink
}

// Unsubscribe is a no-op for an unknown subscriber.
func (r *Registry) Unsubscribe(subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, subscriberID)
}

// Sinks returns a snapshot; subscribers may leave while it is being used.
func (r *Registry) Sinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
