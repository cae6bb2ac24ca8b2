package dispatch

import (
	"sync"

	"chat-graph/contract"
)

type set map[string]struct{}

// Registry tracks which subscriber listens on which topic. A subscriber's
// sink is registered once in sessions and referenced from every topic it
// joined, so a client in many groups still has a single push channel.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink // subscriber id -> sink
	topics   map[string]set                // topic -> subscriber ids
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
		topics:   make(map[string]set),
	}
}

// SinksFor resolves the active sinks of a topic. Returns nil when the topic
// has no subscribers.
func (r *Registry) SinksFor(topic string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.topics[topic]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for subscriberID := range members {
		if sink, exists := r.sessions[subscriberID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// Subscribe registers the subscriber's sink and joins it to the topic,
// initializing the topic set on first use.
func (r *Registry) Subscribe(subscriberID, topic string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[subscriberID] = sink

	if _, ok := r.topics[topic]; !ok {
		r.topics[topic] = make(set)
	}
	r.topics[topic][subscriberID] = struct{}{}
}

// Unsubscribe removes the subscriber from one topic. The session is dropped
// only once the subscriber is out of every topic, and empty topic sets are
// removed so the map does not grow unbounded.
func (r *Registry) Unsubscribe(subscriberID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.topics[topic]; ok {
		delete(members, subscriberID)
		if len(members) == 0 {
			delete(r.topics, topic)
		}
	}

	for _, members := range r.topics {
		if _, still := members[subscriberID]; still {
			return
		}
	}
	delete(r.sessions, subscriberID)
}
