package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 32

// Hub fans events out to in-process subscribers. Slow subscribers miss events
// instead of stalling the writer.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer int
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[string]chan Event), buffer: buffer}
}

// Subscribe registers a new listener. The channel is closed by Unsubscribe.
// After Close the returned channel is already closed.
func (h *Hub) Subscribe() (string, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	return id, ch
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}
	close(ch)
	delete(h.subs, id)
}

// Broadcast delivers e to every subscriber with room in its queue.
func (h *Hub) Broadcast(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub <- e:
		default:
		}
	}
}

// Publish satisfies Publisher for single-replica deployments.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.Broadcast(e)
	return nil
}

// Subscribers reports the number of active listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close drops every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

var _ Publisher = (*Hub)(nil)
