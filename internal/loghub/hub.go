// Package loghub fans application log events out to any number of live
// stream subscribers, keeping a bounded ring of recent events so a new
// subscriber starts with full recent history.
package loghub

import (
	"log/slog"
	"sync"
	"time"
)

const subscriberBuffer = 64

// Event is one immutable log entry. Sequence increases strictly across
// the process lifetime, so every subscriber observes the same total
// order.
type Event struct {
	Sequence  uint64    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// Subscriber is one attached stream consumer. Events arrive on C in
// publish order. When the hub detaches the subscriber, C is closed.
type Subscriber struct {
	C chan Event

	closeOnce sync.Once
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.C) })
}

// Hub holds the ring buffer and the set of live subscribers. Publishing
// never blocks on a subscriber: a subscriber that cannot accept an
// event is detached and sees no further events.
type Hub struct {
	capacity int
	logger   *slog.Logger

	mu       sync.Mutex
	sequence uint64
	buffer   []Event
	subs     map[*Subscriber]struct{}
	onEvent  func()

	now func() time.Time
}

// NewHub creates a Hub retaining at most capacity recent events.
func NewHub(capacity int, logger *slog.Logger) *Hub {
	if capacity < 1 {
		capacity = 1
	}
	return &Hub{
		capacity: capacity,
		logger:   logger,
		subs:     make(map[*Subscriber]struct{}),
		now:      time.Now,
	}
}

// Publish appends an event to the ring buffer, evicting the single
// oldest entry on overflow, and delivers it to every subscriber. A
// subscriber whose channel is full is detached; delivery to the others
// and the Publish call itself are unaffected.
func (h *Hub) Publish(level, message string) Event {
	h.mu.Lock()

	h.sequence++
	event := Event{
		Sequence:  h.sequence,
		Timestamp: h.now(),
		Level:     level,
		Message:   message,
	}

	h.buffer = append(h.buffer, event)
	if len(h.buffer) > h.capacity {
		h.buffer = h.buffer[1:]
	}

	var stalled []*Subscriber
	for sub := range h.subs {
		select {
		case sub.C <- event:
		default:
			stalled = append(stalled, sub)
		}
	}
	for _, sub := range stalled {
		delete(h.subs, sub)
	}
	onEvent := h.onEvent
	h.mu.Unlock()

	if onEvent != nil {
		onEvent()
	}

	for _, sub := range stalled {
		sub.close()
		h.logger.Warn("log subscriber stalled, detached")
	}
	return event
}

// OnEvent registers fn to run after every publish. The hub is wired up
// before its observers exist, so the callback is installed late.
func (h *Hub) OnEvent(fn func()) {
	h.mu.Lock()
	h.onEvent = fn
	h.mu.Unlock()
}

// Subscribe attaches a new subscriber and returns it along with a
// snapshot of the buffered events, oldest first. The snapshot and
// registration happen atomically, so every event published afterwards
// either is in the snapshot or will arrive on the channel, never both
// and never neither.
func (h *Hub) Subscribe() (*Subscriber, []Event) {
	sub := &Subscriber{C: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	snapshot := make([]Event, len(h.buffer))
	copy(snapshot, h.buffer)
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub, snapshot
}

// Unsubscribe detaches sub and closes its channel. Detaching is
// terminal and idempotent; a consumer that wants events again must
// subscribe anew.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()

	if ok {
		sub.close()
	}
}

// SubscriberCount returns the number of attached subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Buffered returns a copy of the current ring buffer, oldest first.
func (h *Hub) Buffered() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	snapshot := make([]Event, len(h.buffer))
	copy(snapshot, h.buffer)
	return snapshot
}
