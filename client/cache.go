// Package client keeps a local, per-group ordered view of message
// connections and reconciles it against authoritative mutation results,
// push events, and paginated fetches.
//
// Every patch is applied atomically under one lock: a reader never observes
// a half-applied optimistic insert, reconciliation, merge, or rollback.
// Final placement is decided by the ordering key and the dedupe rules, not
// by network arrival order.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"chat-graph/domain"
	"chat-graph/domain/event"
	"chat-graph/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// OptimisticID is the placeholder id of a locally synthesized message. Real
// ids are positive, so a negative sentinel can never collide.
const OptimisticID int64 = -1

// State of a locally-originated message. Pending and Failed are the only
// states visible before network confirmation; Confirmed and
// rolled-back-to-absent are terminal.
type State int

const (
	StatePending State = iota
	StateConfirmed
	StateFailed
)

// Pending is the handle of one dispatched createMessage. The correlation
// token, not the placeholder id, identifies the optimistic edge during
// reconciliation.
type Pending struct {
	Correlation uuid.UUID
	GroupID     string
	Text        string
	CreatedAt   time.Time

	state State // guarded by the owning cache's mutex
	done  chan struct{}
}

// entry pairs an edge with the correlation token of the pending mutation
// that produced it. Authoritative entries carry the zero token.
type entry struct {
	edge        domain.MessageEdge
	correlation uuid.UUID
}

type Cache struct {
	mu      sync.Mutex
	log     *slog.Logger
	self    domain.User
	conns   map[string][]entry
	pending map[uuid.UUID]*Pending
	// window bounds the timestamp distance within which a push event is
	// considered a redelivery of a pending optimistic message.
	window time.Duration
}

func NewCache(log *slog.Logger, self domain.User, window time.Duration) *Cache {
	return &Cache{
		log:     log,
		self:    self,
		conns:   make(map[string][]entry),
		pending: make(map[uuid.UUID]*Pending),
		window:  window,
	}
}

// DispatchCreateMessage applies the optimistic patch for a createMessage
// mutation: a placeholder edge is inserted at the head of the group's
// connection immediately. The call is purely local and never blocks on the
// network.
func (c *Cache) DispatchCreateMessage(groupID, text string) *Pending {
	p := &Pending{
		Correlation: uuid.New(),
		GroupID:     groupID,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
		state:       StatePending,
		done:        make(chan struct{}),
	}

	optimistic := domain.Message{
		ID:        OptimisticID,
		GroupID:   groupID,
		From:      c.self.ID,
		Text:      text,
		CreatedAt: p.CreatedAt,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[p.Correlation] = p
	c.conns[groupID] = append([]entry{{
		edge:        domain.EdgeFor(optimistic),
		correlation: p.Correlation,
	}}, c.conns[groupID]...)
	return p
}

// Confirm reconciles the optimistic edge with the authoritative mutation
// result. The edge is located by correlation token and replaced in place;
// the list is then re-sorted so the authoritative ordering key decides the
// final position. Idempotent when a push event already confirmed the entry.
func (c *Cache) Confirm(p *Pending, msg domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.state != StatePending {
		return
	}
	c.confirmLocked(p, msg)
}

// Fail rolls the optimistic patch back: the placeholder edge is removed and
// no partial state remains. The failure itself is surfaced by the caller.
func (c *Cache) Fail(p *Pending) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.state != StatePending {
		return
	}
	c.conns[p.GroupID] = lo.Reject(c.conns[p.GroupID], func(e entry, _ int) bool {
		return e.correlation == p.Correlation
	})
	c.settle(p, StateFailed)
}

// Await blocks until the pending mutation settles or the bounded lifetime
// expires. Expiry rolls the optimistic edge back and reports a conflict.
func (c *Cache) Await(p *Pending, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
	}

	c.mu.Lock()
	state := p.state
	c.mu.Unlock()

	switch state {
	case StateConfirmed:
		return nil
	case StatePending:
		c.Fail(p)
		return fmt.Errorf("%w: mutation unconfirmed after %s", errors.ErrConflict, timeout)
	default:
		return fmt.Errorf("%w: mutation rolled back", errors.ErrConflict)
	}
}

// State reports the current lifecycle state of a pending handle.
func (c *Cache) State(p *Pending) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return p.state
}

// Consume lets the cache act as the push-channel sink of the dispatcher.
func (c *Cache) Consume(_ context.Context, e event.DomainEvent) error {
	if added, ok := e.(event.MessageAdded); ok {
		c.ApplyEvent(added)
	}
	return nil
}

// ApplyEvent merges a pushed MessageAdded into the local view. Replacing a
// matching optimistic placeholder takes precedence over inserting a new
// edge; delivery is at-least-once, so an id already present is a no-op.
func (c *Cache) ApplyEvent(e event.MessageAdded) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.holdsMessage(e.GroupID, e.Message.ID) {
		c.log.Debug("duplicate push event ignored", "group_id", e.GroupID, "message_id", e.Message.ID)
		return
	}

	if p := c.matchPending(e.Message); p != nil {
		c.confirmLocked(p, e.Message)
		return
	}

	c.conns[e.GroupID] = append(c.conns[e.GroupID], entry{edge: domain.EdgeFor(e.Message)})
	c.sortLocked(e.GroupID)
}

// MergePage merges a paginated fetch result into the group's edge list by
// cursor comparison. Edges already held (by message id) are dropped, and
// in-flight optimistic entries keep their place at the head; pages are
// never blindly concatenated.
func (c *Cache) MergePage(groupID string, conn domain.MessageConnection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, edge := range conn.Edges {
		if c.holdsMessage(groupID, edge.Node.ID) {
			continue
		}
		c.conns[groupID] = append(c.conns[groupID], entry{edge: edge})
	}
	c.sortLocked(groupID)
}

// Edges returns a copy of the group's current edge list, newest first.
func (c *Cache) Edges(groupID string) []domain.MessageEdge {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Map(c.conns[groupID], func(e entry, _ int) domain.MessageEdge {
		return e.edge
	})
}

// confirmLocked replaces the optimistic edge of p with the authoritative
// one, or deduplicates if the authoritative message is already present.
func (c *Cache) confirmLocked(p *Pending, msg domain.Message) {
	entries := c.conns[p.GroupID]
	if c.holdsMessage(p.GroupID, msg.ID) {
		// The event won the race; drop the leftover placeholder.
		entries = lo.Reject(entries, func(e entry, _ int) bool {
			return e.correlation == p.Correlation
		})
	} else if i, found := c.locate(entries, p); found {
		entries[i] = entry{edge: domain.EdgeFor(msg)}
	} else {
		entries = append(entries, entry{edge: domain.EdgeFor(msg)})
	}
	c.conns[p.GroupID] = entries
	c.sortLocked(p.GroupID)
	c.settle(p, StateConfirmed)
}

// locate finds the optimistic edge of p, by correlation token first and by
// the (author, text, placeholder id) tuple as a fallback.
func (c *Cache) locate(entries []entry, p *Pending) (int, bool) {
	if i := lo.IndexOf(lo.Map(entries, func(e entry, _ int) uuid.UUID {
		return e.correlation
	}), p.Correlation); i >= 0 {
		return i, true
	}
	for i, e := range entries {
		if e.edge.Node.ID == OptimisticID && e.edge.Node.From == c.self.ID && e.edge.Node.Text == p.Text {
			return i, true
		}
	}
	return 0, false
}

// matchPending finds a pending mutation that a pushed message confirms:
// same group and author, same text, and a creation time within the dedupe
// window of the optimistic timestamp.
func (c *Cache) matchPending(msg domain.Message) *Pending {
	if msg.From != c.self.ID {
		return nil
	}
	for _, p := range c.pending {
		if p.GroupID != msg.GroupID || p.Text != msg.Text {
			continue
		}
		delta := msg.CreatedAt.Sub(p.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta <= c.window {
			return p
		}
	}
	return nil
}

func (c *Cache) holdsMessage(groupID string, id int64) bool {
	if id == OptimisticID {
		return false
	}
	return lo.SomeBy(c.conns[groupID], func(e entry) bool {
		return e.edge.Node.ID == id
	})
}

// sortLocked restores display order: pending placeholders stay at the head
// (they have no authoritative key yet), authoritative edges follow in
// (CreatedAt DESC, ID DESC) order.
func (c *Cache) sortLocked(groupID string) {
	entries := c.conns[groupID]
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].edge.Node, entries[j].edge.Node
		optimisticA, optimisticB := a.ID < 0, b.ID < 0
		if optimisticA != optimisticB {
			return optimisticA
		}
		return b.Before(a)
	})
}

func (c *Cache) settle(p *Pending, state State) {
	p.state = state
	delete(c.pending, p.Correlation)
	close(p.done)
}
