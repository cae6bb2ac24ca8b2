// Package dispatch publishes domain events to topic subscribers after a
// successful mutation.
//
// Delivery is at-least-once: a failing sink gets the event re-offered once,
// and a subscriber may therefore see a duplicate. Ordering holds within a
// single topic (publish order equals commit order); there is no cross-topic
// guarantee.
package dispatch

import (
	"context"
	"log/slog"

	"chat-graph/contract"
	"chat-graph/domain/event"
)

type Dispatcher struct {
	log      *slog.Logger
	registry *Registry
	events   chan event.DomainEvent
}

func NewDispatcher(log *slog.Logger, registry *Registry, bufferSize int) *Dispatcher {
	return &Dispatcher{
		log:      log,
		registry: registry,
		events:   make(chan event.DomainEvent, bufferSize),
	}
}

func (d *Dispatcher) Subscribe(subscriberID, topic string, sink contract.EventSink) {
	d.registry.Subscribe(subscriberID, topic, sink)
}

func (d *Dispatcher) Unsubscribe(subscriberID, topic string) {
	d.registry.Unsubscribe(subscriberID, topic)
}

// Publish enqueues an event for fan-out. The send blocks when the buffer is
// full rather than dropping: losing a committed event would break the
// at-least-once contract.
func (d *Dispatcher) Publish(e event.DomainEvent) {
	d.events <- e
}

// Run consumes the publish queue until the context is done. Events are
// fanned out one at a time, which preserves per-topic ordering.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-d.events:
			d.fanout(ctx, evt)
		case <-ctx.Done():
			d.log.Debug("context done, stopping dispatcher")
			return nil
		}
	}
}

// fanout delivers the event to every sink of its topic. A failed delivery
// is retried once; a second failure is logged and the event abandoned for
// that sink only.
func (d *Dispatcher) fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range d.registry.SinksFor(evt.Topic()) {
		if err := sink.Consume(ctx, evt); err == nil {
			continue
		}
		if err := sink.Consume(ctx, evt); err != nil {
			d.log.Warn("sink delivery failed after retry", "topic", evt.Topic(), "error", err)
		}
	}
}
