package loghub

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func collect(t *testing.T, sub *Subscriber, n int) []Event {
	t.Helper()
	events := make([]Event, 0, n)
	for len(events) < n {
		select {
		case event, ok := <-sub.C:
			if !ok {
				t.Fatalf("channel closed after %d of %d events", len(events), n)
			}
			events = append(events, event)
		case <-time.After(time.Second):
			t.Fatalf("timeout after %d of %d events", len(events), n)
		}
	}
	return events
}

func TestReplayWithinCapacity(t *testing.T) {
	hub := NewHub(10, slog.Default())

	hub.Publish("info", "a")
	hub.Publish("info", "b")
	hub.Publish("info", "c")

	sub, snapshot := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	want := []string{"a", "b", "c"}
	if len(snapshot) != len(want) {
		t.Fatalf("snapshot length = %d, want %d", len(snapshot), len(want))
	}
	for i, event := range snapshot {
		if event.Message != want[i] {
			t.Errorf("snapshot[%d] = %q, want %q", i, event.Message, want[i])
		}
	}
}

func TestReplayEvictsOldest(t *testing.T) {
	hub := NewHub(3, slog.Default())

	for _, msg := range []string{"a", "b", "c", "d"} {
		hub.Publish("info", msg)
	}

	sub, snapshot := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	want := []string{"b", "c", "d"}
	if len(snapshot) != len(want) {
		t.Fatalf("snapshot length = %d, want %d", len(snapshot), len(want))
	}
	for i, event := range snapshot {
		if event.Message != want[i] {
			t.Errorf("snapshot[%d] = %q, want %q", i, event.Message, want[i])
		}
	}
}

func TestLiveEventsAfterReplay(t *testing.T) {
	hub := NewHub(10, slog.Default())
	hub.Publish("info", "old")

	sub, snapshot := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	if len(snapshot) != 1 || snapshot[0].Message != "old" {
		t.Fatalf("unexpected snapshot %v", snapshot)
	}

	hub.Publish("warn", "new")
	events := collect(t, sub, 1)
	if events[0].Message != "new" || events[0].Level != "warn" {
		t.Errorf("got %+v, want live event new/warn", events[0])
	}
	if events[0].Sequence <= snapshot[0].Sequence {
		t.Errorf("live sequence %d not after snapshot sequence %d", events[0].Sequence, snapshot[0].Sequence)
	}
}

func TestSequenceStrictlyIncreases(t *testing.T) {
	hub := NewHub(5, slog.Default())

	var last uint64
	for i := 0; i < 20; i++ {
		event := hub.Publish("info", fmt.Sprintf("msg %d", i))
		if event.Sequence <= last {
			t.Fatalf("sequence %d not greater than %d", event.Sequence, last)
		}
		last = event.Sequence
	}

	// Eviction never resets or reorders sequences in the buffer.
	buffered := hub.Buffered()
	if len(buffered) != 5 {
		t.Fatalf("buffered = %d, want 5", len(buffered))
	}
	for i := 1; i < len(buffered); i++ {
		if buffered[i].Sequence != buffered[i-1].Sequence+1 {
			t.Errorf("buffer sequences not contiguous at %d: %d then %d", i, buffered[i-1].Sequence, buffered[i].Sequence)
		}
	}
}

func TestStalledSubscriberDetached(t *testing.T) {
	hub := NewHub(1000, slog.Default())

	stalled, _ := hub.Subscribe()
	healthy, _ := hub.Subscribe()

	// Fill the stalled subscriber's channel exactly, draining the
	// healthy one so it keeps room for more.
	for i := 0; i < subscriberBuffer; i++ {
		hub.Publish("info", fmt.Sprintf("msg %d", i))
	}
	healthyEvents := collect(t, healthy, subscriberBuffer)

	// One more event trips the stall.
	hub.Publish("info", fmt.Sprintf("msg %d", subscriberBuffer))
	healthyEvents = append(healthyEvents, collect(t, healthy, 1)...)

	if got := hub.SubscriberCount(); got != 1 {
		t.Fatalf("subscriber count = %d, want 1 after stall", got)
	}

	// The stalled channel holds its backlog and then reports closure.
	events := collect(t, stalled, subscriberBuffer)
	select {
	case _, ok := <-stalled.C:
		if ok {
			t.Error("expected stalled channel closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for stalled channel close")
	}
	if events[0].Message != "msg 0" {
		t.Errorf("stalled subscriber first event = %q, want msg 0", events[0].Message)
	}

	// The healthy subscriber saw every event despite its peer's stall.
	if len(healthyEvents) != subscriberBuffer+1 {
		t.Fatalf("healthy subscriber received %d events, want %d", len(healthyEvents), subscriberBuffer+1)
	}
	if last := healthyEvents[len(healthyEvents)-1].Message; last != fmt.Sprintf("msg %d", subscriberBuffer) {
		t.Errorf("healthy subscriber missed the final event, last = %q", last)
	}
	hub.Unsubscribe(healthy)
}

func TestUnsubscribeIdempotent(t *testing.T) {
	hub := NewHub(10, slog.Default())

	sub, _ := hub.Subscribe()
	hub.Unsubscribe(sub)
	// Must not panic or double-close.
	hub.Unsubscribe(sub)

	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("subscriber count = %d, want 0", got)
	}

	// Publishing after everyone left is a no-op for delivery.
	hub.Publish("info", "nobody home")
}

func TestConcurrentPublishOrderPerSubscriber(t *testing.T) {
	hub := NewHub(1024, slog.Default())

	sub, _ := hub.Subscribe()

	// Total stays within the subscriber buffer so a slow consumer can
	// never be mistaken for a stalled one.
	const goroutines = 8
	const perGoroutine = 8

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				hub.Publish("info", "x")
			}
		}()
	}

	done := make(chan struct{})
	var events []Event
	go func() {
		defer close(done)
		for len(events) < goroutines*perGoroutine {
			select {
			case event := <-sub.C:
				events = append(events, event)
			case <-time.After(2 * time.Second):
				return
			}
		}
	}()

	wg.Wait()
	<-done

	if len(events) != goroutines*perGoroutine {
		t.Fatalf("received %d events, want %d", len(events), goroutines*perGoroutine)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Sequence <= events[i-1].Sequence {
			t.Fatalf("out-of-order delivery at %d: %d then %d", i, events[i-1].Sequence, events[i].Sequence)
		}
	}

	hub.Unsubscribe(sub)
}

func TestOnEventRunsPerPublish(t *testing.T) {
	hub := NewHub(10, slog.Default())

	var calls int
	hub.OnEvent(func() { calls++ })

	hub.Publish("info", "one")
	hub.Publish("info", "two")

	if calls != 2 {
		t.Errorf("callback ran %d times, want 2", calls)
	}
}
