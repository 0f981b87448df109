package server

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zeusync/droneforge/internal/core/assembly"
	"github.com/zeusync/droneforge/internal/core/builder"
	"github.com/zeusync/droneforge/internal/core/events/bus"
	"github.com/zeusync/droneforge/internal/core/observability/log"
)

// Room is one assembly session shared by every client connected to it.
type Room struct {
	id      string
	builder *builder.Builder
	subs    []bus.Subscription
	logger  log.Log

	rejected atomic.Uint64

	mu      sync.Mutex
	clients map[*client]struct{}
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) Builder() *builder.Builder {
	return r.builder
}

func (r *Room) join(c *client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	n := len(r.clients)
	r.mu.Unlock()
	r.logger.Info("Client joined room", log.String("client_id", c.id), log.Int("clients", n))
}

func (r *Room) leave(c *client) {
	r.mu.Lock()
	delete(r.clients, c)
	n := len(r.clients)
	r.mu.Unlock()
	r.logger.Info("Client left room", log.String("client_id", c.id), log.Int("clients", n))
}

func (r *Room) clientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// onChanged runs inside the builder's critical section, so it only enqueues.
func (r *Room) onChanged(e bus.Event) error {
	update, ok := e.Data().(builder.Update)
	if !ok {
		return nil
	}
	msg := Message{Type: MessageState, State: &update}
	if op, ok := e.Metadata()["op"].(string); ok {
		msg.Op = op
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		if !c.enqueue(msg) {
			r.logger.Warn("Dropping slow client", log.String("client_id", c.id))
		}
	}
	return nil
}

// onRejected counts refused commands. The sender already gets its own reply.
func (r *Room) onRejected(e bus.Event) error {
	rej, ok := e.Data().(builder.Rejection)
	if !ok {
		return nil
	}
	r.rejected.Add(1)
	if errors.Is(rej.Err, assembly.ErrSequenceViolation) {
		r.logger.Info("Out of sequence command", log.String("op", rej.Op), log.String("reason", rej.Reason))
	}
	return nil
}

// Rejected is the number of commands refused in this room.
func (r *Room) Rejected() uint64 {
	return r.rejected.Load()
}
