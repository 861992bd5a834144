package relay

import (
	"context"

	"salesync/internal/domain/sales"
	"salesync/internal/store"
	"salesync/pkg/logger"
)

// Relay consumes the store's two change streams and republishes every event
// to every connected session, unconditionally. No batching, no filtering,
// no transformation: scoped views filter client-side.
type Relay struct {
	store *store.Store
	hub   *Hub
	log   *logger.Logger
}

// New wires a relay between the store and the hub.
func New(st *store.Store, hub *Hub, log *logger.Logger) *Relay {
	return &Relay{
		store: st,
		hub:   hub,
		log:   log.WithComponent("relay"),
	}
}

// Run pumps change events until the context is cancelled. Run on its own
// goroutine; delivery failures never propagate back to the writer.
func (r *Relay) Run(ctx context.Context) {
	r.log.Info("relay started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopped")
			return
		case ev := <-r.store.CustomerChanges():
			r.hub.Broadcast(sales.TopicCustomerChanged, ev)
		case ev := <-r.store.OrderChanges():
			r.hub.Broadcast(sales.TopicOrderChanged, ev)
		}
	}
}
