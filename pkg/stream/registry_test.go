package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

var testID = telemetry.NewIdentifier("sc", "fuel")

func TestRegistry_SubscribeUnsubscribe(t *testing.T) {
	r := NewRegistry()
	l := NewListener(4)

	r.Subscribe(testID, l)
	if got := len(r.ListenersFor(testID)); got != 1 {
		t.Fatalf("Expected 1 listener, got %d", got)
	}

	r.Unsubscribe(testID, l)
	if got := len(r.ListenersFor(testID)); got != 0 {
		t.Fatalf("Expected 0 listeners after unsubscribe, got %d", got)
	}
	if r.RefCount(testID) != 0 {
		t.Errorf("Expected refcount 0, got %d", r.RefCount(testID))
	}
}

func TestRegistry_RefCountSemantics(t *testing.T) {
	r := NewRegistry()
	l := NewListener(4)

	// Subscribing twice with the same handle bumps the count but keeps
	// one group entry
	r.Subscribe(testID, l)
	r.Subscribe(testID, l)
	if got := len(r.ListenersFor(testID)); got != 1 {
		t.Fatalf("Expected 1 group entry, got %d", got)
	}
	if r.RefCount(testID) != 2 {
		t.Fatalf("Expected refcount 2, got %d", r.RefCount(testID))
	}

	// One unsubscribe leaves the listener still subscribed
	r.Unsubscribe(testID, l)
	if got := len(r.ListenersFor(testID)); got != 1 {
		t.Fatalf("Expected listener still subscribed, got %d entries", got)
	}

	// The second removes it
	r.Unsubscribe(testID, l)
	if got := len(r.ListenersFor(testID)); got != 0 {
		t.Fatalf("Expected listener removed, got %d entries", got)
	}
}

func TestRegistry_UnsubscribeUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	l := NewListener(4)

	r.Unsubscribe(testID, l) // never subscribed

	other := NewListener(4)
	r.Subscribe(testID, other)
	r.Unsubscribe(testID, l) // wrong listener
	if r.RefCount(testID) != 1 {
		t.Errorf("Unrelated unsubscribe changed refcount: %d", r.RefCount(testID))
	}
}

func TestRegistry_MultipleListeners(t *testing.T) {
	r := NewRegistry()
	a := NewListener(4)
	b := NewListener(4)

	r.Subscribe(testID, a)
	r.Subscribe(testID, b)
	if got := len(r.ListenersFor(testID)); got != 2 {
		t.Fatalf("Expected 2 listeners, got %d", got)
	}

	r.Unsubscribe(testID, a)
	listeners := r.ListenersFor(testID)
	if len(listeners) != 1 || listeners[0].ID() != b.ID() {
		t.Errorf("Expected only listener b to remain")
	}
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	ids := []telemetry.ObjectIdentifier{
		telemetry.NewIdentifier("sc", "a"),
		telemetry.NewIdentifier("sc", "b"),
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			l := NewListener(4)
			id := ids[w%len(ids)]
			for i := 0; i < 500; i++ {
				r.Subscribe(id, l)
				r.ListenersFor(id)
				r.Unsubscribe(id, l)
			}
		}(w)
	}
	wg.Wait()

	for _, id := range ids {
		if r.RefCount(id) != 0 {
			t.Errorf("Expected refcount 0 for %s after churn, got %d", id, r.RefCount(id))
		}
	}
}

func TestHub_FanOut(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(r)

	a := NewListener(4)
	b := NewListener(4)
	r.Subscribe(testID, a)
	r.Subscribe(testID, b)

	sample := telemetry.Sample{ObjectID: testID, Timestamp: time.Unix(100, 0), Value: telemetry.Float64(5)}
	hub.Publish(sample)

	for _, l := range []*Listener{a, b} {
		select {
		case ev := <-l.Events():
			if !ev.Point.Timestamp.Equal(sample.Timestamp) || !ev.Point.Value.Equal(sample.Value) {
				t.Errorf("Wrong event delivered: %+v", ev)
			}
		default:
			t.Fatal("Listener received nothing")
		}
	}
}

func TestHub_PublishNoSubscribersIsNoop(t *testing.T) {
	hub := NewHub(NewRegistry())
	hub.Publish(telemetry.Sample{ObjectID: testID, Timestamp: time.Now(), Value: telemetry.Float64(1)})
	if stats := hub.Stats(); stats.Delivered != 0 || stats.Dropped != 0 {
		t.Errorf("Expected no deliveries, got %+v", stats)
	}
}

func TestHub_SlowConsumerDrops(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(r)

	slow := NewListener(1)
	fast := NewListener(8)
	r.Subscribe(testID, slow)
	r.Subscribe(testID, fast)

	for i := 0; i < 5; i++ {
		hub.Publish(telemetry.Sample{ObjectID: testID, Timestamp: time.Unix(int64(i), 0), Value: telemetry.Float64(float64(i))})
	}

	// The slow listener keeps its first event and drops the rest; the
	// fast listener sees everything.
	if slow.Drops() != 4 {
		t.Errorf("Expected 4 drops for slow listener, got %d", slow.Drops())
	}
	if fast.Drops() != 0 {
		t.Errorf("Expected no drops for fast listener, got %d", fast.Drops())
	}
	if got := len(fast.Events()); got != 5 {
		t.Errorf("Expected 5 buffered events for fast listener, got %d", got)
	}
}

func TestHub_PerObjectOrder(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(r)

	l := NewListener(16)
	r.Subscribe(testID, l)

	for i := 0; i < 10; i++ {
		hub.Publish(telemetry.Sample{ObjectID: testID, Timestamp: time.Unix(int64(i), 0), Value: telemetry.Float64(float64(i))})
	}

	for i := 0; i < 10; i++ {
		ev := <-l.Events()
		if ev.Point.Value.Float != float64(i) {
			t.Fatalf("Out of order delivery: expected %d, got %v", i, ev.Point.Value)
		}
	}
}

func TestHub_PublishAfterListenerClose(t *testing.T) {
	r := NewRegistry()
	hub := NewHub(r)

	l := NewListener(4)
	r.Subscribe(testID, l)

	// A publish racing a teardown must not panic even if the snapshot
	// still holds the closed listener.
	l.Close()
	hub.Publish(telemetry.Sample{ObjectID: testID, Timestamp: time.Now(), Value: telemetry.Float64(1)})
}
