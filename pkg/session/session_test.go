package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/stream"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

var testID = telemetry.NewIdentifier("sc", "fuel")

func newActiveSession(t *testing.T) (*Session, *stream.Registry) {
	t.Helper()
	registry := stream.NewRegistry()
	s := newSession(registry, 8)
	if err := s.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return s, registry
}

func TestSession_Lifecycle(t *testing.T) {
	registry := stream.NewRegistry()
	s := newSession(registry, 8)

	if s.State() != StateConnecting {
		t.Fatalf("New session should be connecting, got %s", s.State())
	}
	if err := s.Subscribe(testID); !errors.Is(err, ErrNotActive) {
		t.Errorf("Subscribe before handshake should fail, got %v", err)
	}

	if err := s.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if s.State() != StateActive {
		t.Fatalf("Expected active, got %s", s.State())
	}

	// Activating twice is a protocol violation
	if err := s.Activate(); err == nil {
		t.Error("Second Activate should fail")
	}

	s.Drain()
	if s.State() != StateClosed {
		t.Fatalf("Expected closed after drain, got %s", s.State())
	}
}

func TestSession_SubscribeRegistersInterest(t *testing.T) {
	s, registry := newActiveSession(t)

	if err := s.Subscribe(testID); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if registry.RefCount(testID) != 1 {
		t.Errorf("Expected refcount 1, got %d", registry.RefCount(testID))
	}

	if err := s.Unsubscribe(testID); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if registry.RefCount(testID) != 0 {
		t.Errorf("Expected refcount 0, got %d", registry.RefCount(testID))
	}
}

func TestSession_TeardownReleasesAllInterest(t *testing.T) {
	s, registry := newActiveSession(t)

	other := telemetry.NewIdentifier("sc", "temp")
	s.Subscribe(testID)
	s.Subscribe(testID) // stacked interest
	s.Subscribe(other)

	s.Drain()

	if registry.RefCount(testID) != 0 {
		t.Errorf("Expected refcount 0 for %s, got %d", testID, registry.RefCount(testID))
	}
	if registry.RefCount(other) != 0 {
		t.Errorf("Expected refcount 0 for %s, got %d", other, registry.RefCount(other))
	}

	// Delivery channel is closed after teardown
	select {
	case _, ok := <-s.Events():
		if ok {
			t.Error("Expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Error("Delivery channel not closed after drain")
	}
}

func TestSession_NoDoubleDecrementOnRacingTeardown(t *testing.T) {
	// An explicit unsubscribe racing a disconnect must release the
	// session's interest exactly once. Another session's interest in the
	// same object is the canary: it must survive untouched.
	for i := 0; i < 100; i++ {
		registry := stream.NewRegistry()

		bystander := newSession(registry, 8)
		bystander.Activate()
		bystander.Subscribe(testID)

		s := newSession(registry, 8)
		s.Activate()
		s.Subscribe(testID)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Unsubscribe(testID)
		}()
		go func() {
			defer wg.Done()
			s.Drain()
		}()
		wg.Wait()

		if got := registry.RefCount(testID); got != 1 {
			t.Fatalf("Iteration %d: bystander interest corrupted, refcount = %d", i, got)
		}
	}
}

func TestSession_ConcurrentDrainAndFail(t *testing.T) {
	s, registry := newActiveSession(t)
	s.Subscribe(testID)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); s.Drain() }()
		go func() { defer wg.Done(); s.Fail() }()
	}
	wg.Wait()

	if s.State() != StateClosed {
		t.Errorf("Expected closed, got %s", s.State())
	}
	if registry.RefCount(testID) != 0 {
		t.Errorf("Expected refcount 0, got %d", registry.RefCount(testID))
	}
}

func TestSession_UnsubscribeAfterCloseFails(t *testing.T) {
	s, _ := newActiveSession(t)
	s.Subscribe(testID)
	s.Drain()

	if err := s.Unsubscribe(testID); !errors.Is(err, ErrNotActive) {
		t.Errorf("Expected ErrNotActive after close, got %v", err)
	}
}

func TestSession_ReceivesPublishedEvents(t *testing.T) {
	registry := stream.NewRegistry()
	hub := stream.NewHub(registry)

	s := newSession(registry, 8)
	s.Activate()
	s.Subscribe(testID)

	hub.Publish(telemetry.Sample{ObjectID: testID, Timestamp: time.Unix(100, 0), Value: telemetry.Float64(5)})

	select {
	case ev := <-s.Events():
		if ev.Point.Value.Float != 5 {
			t.Errorf("Wrong event value: %v", ev.Point.Value)
		}
	case <-time.After(time.Second):
		t.Fatal("No event delivered")
	}
}
