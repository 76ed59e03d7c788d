// this file deals with the global fan-out state of the system
package main

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/himanshub16/songdesk/songs"
)

// subscriberBufferSize bounds how many undelivered events a single viewer
// may lag behind before events are dropped for it.
const subscriberBufferSize = 16

// Subscriber is one viewer's handle on the hub. Events arrive on the
// channel in the order they were published (FIFO per subscriber).
type Subscriber struct {
	ID     string
	Events chan songs.Event
}

// Hub fans every accepted mutation out to all subscribed viewers. Delivery
// is independent per viewer: a slow or unreachable one loses events (the
// channel buffer fills and sends are dropped) but never blocks the others,
// and never fails Publish. Nothing is persisted; a viewer that missed
// events resynchronizes with a full fetch.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*Subscriber
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscriber),
	}
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID:     uuid.New().String(),
		Events: make(chan songs.Event, subscriberBufferSize),
	}
	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()
	log.Println("new subscriber:", sub.ID)
	return sub
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, exists := h.subscribers[id]
	if !exists {
		return
	}
	delete(h.subscribers, id)
	close(sub.Events)
	log.Println("subscriber left:", id)
}

// Publish hands the event to every current subscriber. The sends are
// non-blocking, so holding the lock here is fine and keeps Publish safe
// against a concurrent Unsubscribe closing a channel mid fan-out.
// Subscribers consume their channels outside the lock, so they are free
// to subscribe or unsubscribe from within their own delivery loops.
func (h *Hub) Publish(evt songs.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subscribers {
		select {
		case sub.Events <- evt:
		default:
			log.Println("subscriber", sub.ID, "is lagging, dropping event")
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) Shutdown() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]*Subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		close(sub.Events)
	}
}
