// Package events fans order change events out to live admin subscribers.
package events

import (
	"sync"

	"storefront-api/models"
)

// EventType tags what happened to the order carried by an Event.
type EventType string

const (
	OrderCreated EventType = "order_created"
	OrderUpdated EventType = "order_updated"
	OrderDeleted EventType = "order_deleted"
)

// Event is keyed by OrderID so subscribers patch records in place instead of
// reloading the whole list.
type Event struct {
	Type    EventType     `json:"type"`
	OrderID uint          `json:"order_id"`
	Order   *models.Order `json:"order,omitempty"`
}

// Hub is an in-process publish/subscribe fan-out. Publish never blocks: a
// subscriber that stopped draining loses events rather than stalling order
// placement.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new listener. The returned cancel func must be called
// when the listener goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every live subscriber, dropping it for any
// subscriber whose buffer is full.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// SubscriberCount reports the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
