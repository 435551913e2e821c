package events

import (
	"encoding/json"
	"sync"
)

// Event is the unit delivered to a connected viewer.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans events out to in-process subscribers (the SSE connections).
// Delivery is at-most-once per session: a subscriber that cannot keep up
// has the event dropped rather than blocking the rest of the room.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[chan Event]struct{}
	buffer int
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[chan Event]struct{}),
		buffer: 16,
	}
}

// Subscribe attaches a viewer to a topic. The returned cancel function
// must be called when the connection closes.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	room, ok := h.rooms[topic]
	if !ok {
		room = make(map[chan Event]struct{})
		h.rooms[topic] = room
	}
	room[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if room, ok := h.rooms[topic]; ok {
			delete(room, ch)
			if len(room) == 0 {
				delete(h.rooms, topic)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the topic without
// blocking.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.rooms[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers reports the current subscriber count for a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}
