package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"chat-graph/domain"
	"chat-graph/domain/event"

	"github.com/stretchr/testify/require"
)

type collectingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
	// fail makes the first n deliveries error to exercise the retry path.
	fail int
}

func (s *collectingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return fmt.Errorf("sink unavailable")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *collectingSink) collected() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent{}, s.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func runDispatcher(t *testing.T) (*Dispatcher, *Registry) {
	t.Helper()
	registry := NewRegistry()
	dispatcher := NewDispatcher(slog.Default(), registry, 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = dispatcher.Run(ctx) }()
	return dispatcher, registry
}

func Test_Publish_Reaches_Topic_Subscribers_Only(t *testing.T) {
	req := require.New(t)
	dispatcher, _ := runDispatcher(t)

	member := &collectingSink{}
	outsider := &collectingSink{}
	dispatcher.Subscribe("alice", event.GroupTopic("g1"), member)
	dispatcher.Subscribe("eve", event.GroupTopic("g2"), outsider)

	msg := domain.Message{ID: 1, GroupID: "g1", From: "alice", Text: "hi"}
	dispatcher.Publish(event.MessageAdded{GroupID: "g1", Message: msg})

	waitFor(t, func() bool { return len(member.collected()) == 1 })
	req.Equal(msg, member.collected()[0].(event.MessageAdded).Message)
	req.Empty(outsider.collected())
}

func Test_Delivery_Ordered_Within_Topic(t *testing.T) {
	req := require.New(t)
	dispatcher, _ := runDispatcher(t)

	sink := &collectingSink{}
	dispatcher.Subscribe("alice", event.GroupTopic("g1"), sink)

	for i := int64(1); i <= 5; i++ {
		dispatcher.Publish(event.MessageAdded{
			GroupID: "g1",
			Message: domain.Message{ID: i, GroupID: "g1"},
		})
	}

	waitFor(t, func() bool { return len(sink.collected()) == 5 })
	for i, e := range sink.collected() {
		req.Equal(int64(i+1), e.(event.MessageAdded).Message.ID)
	}
}

func Test_Failed_Delivery_Retried_Once(t *testing.T) {
	req := require.New(t)
	dispatcher, _ := runDispatcher(t)

	flaky := &collectingSink{fail: 1}
	dispatcher.Subscribe("alice", event.GroupTopic("g1"), flaky)

	dispatcher.Publish(event.MessageAdded{GroupID: "g1", Message: domain.Message{ID: 7, GroupID: "g1"}})

	waitFor(t, func() bool { return len(flaky.collected()) == 1 })
	req.Equal(int64(7), flaky.collected()[0].(event.MessageAdded).Message.ID)
}

func Test_Unsubscribe_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	dispatcher, _ := runDispatcher(t)

	sink := &collectingSink{}
	witness := &collectingSink{}
	dispatcher.Subscribe("alice", event.GroupTopic("g1"), sink)
	dispatcher.Subscribe("bob", event.GroupTopic("g1"), witness)
	dispatcher.Unsubscribe("alice", event.GroupTopic("g1"))

	dispatcher.Publish(event.MessageAdded{GroupID: "g1", Message: domain.Message{ID: 1, GroupID: "g1"}})

	waitFor(t, func() bool { return len(witness.collected()) == 1 })
	req.Empty(sink.collected())
}

func Test_Registry_Keeps_Session_While_Other_Topics_Remain(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := &collectingSink{}

	registry.Subscribe("alice", event.GroupTopic("g1"), sink)
	registry.Subscribe("alice", event.UserTopic("alice"), sink)

	registry.Unsubscribe("alice", event.GroupTopic("g1"))
	req.Len(registry.SinksFor(event.UserTopic("alice")), 1)

	registry.Unsubscribe("alice", event.UserTopic("alice"))
	req.Empty(registry.SinksFor(event.UserTopic("alice")))
}
