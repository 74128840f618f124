package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/QuinntyneBrown/openmct/pkg/stream"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// State is a session's lifecycle position. Transitions only ever move
// forward: Connecting -> Active -> Draining -> Closed, with a direct jump
// to Closed on unrecoverable transport failure.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ErrNotActive is returned for subscribe/unsubscribe on a session that is
// not in the Active state.
var ErrNotActive = errors.New("session not active")

// Session represents one external connection. It multiplexes subscribe
// and unsubscribe requests onto a single listener handle and tracks how
// much interest it holds per object, so teardown can release exactly that
// much, exactly once, even when an explicit unsubscribe races a disconnect.
//
// The engine forgets a session entirely at Closed: a reconnecting client
// opens a new session and re-subscribes to everything it still wants.
type Session struct {
	id       uuid.UUID
	registry *stream.Registry
	listener *stream.Listener

	mu         sync.Mutex
	state      State
	subscribed map[telemetry.ObjectIdentifier]int // interest units held per object
	lastSeen   time.Time
}

func newSession(registry *stream.Registry, buffer int) *Session {
	return &Session{
		id:         uuid.New(),
		registry:   registry,
		listener:   stream.NewListener(buffer),
		state:      StateConnecting,
		subscribed: make(map[telemetry.ObjectIdentifier]int),
		lastSeen:   time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events exposes the session's delivery channel. The channel closes when
// the session tears down; events still buffered at that point remain
// readable, which is what lets a draining transport flush them.
func (s *Session) Events() <-chan stream.Event {
	return s.listener.Events()
}

// Drops reports how many events this session's listener has dropped.
func (s *Session) Drops() uint64 {
	return s.listener.Drops()
}

// Activate completes the handshake, Connecting -> Active.
func (s *Session) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return ErrNotActive
	}
	s.state = StateActive
	s.lastSeen = time.Now()
	return nil
}

// Touch refreshes the liveness timestamp; called on every keepalive
// frame.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// IdleSince reports the last liveness refresh.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Subscribe registers interest in an object. Duplicate subscribes stack:
// each one adds a unit of interest that a matching unsubscribe (or
// teardown) releases.
func (s *Session) Subscribe(id telemetry.ObjectIdentifier) error {
	if err := id.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	s.subscribed[id]++
	s.registry.Subscribe(id, s.listener)
	return nil
}

// Unsubscribe releases one unit of interest. Unsubscribing an object the
// session does not hold is a no-op.
func (s *Session) Unsubscribe(id telemetry.ObjectIdentifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}

	count, ok := s.subscribed[id]
	if !ok {
		return nil
	}
	if count == 1 {
		delete(s.subscribed, id)
	} else {
		s.subscribed[id] = count - 1
	}
	s.registry.Unsubscribe(id, s.listener)
	return nil
}

// SubscribedObjects returns a snapshot of the objects this session holds
// interest in.
func (s *Session) SubscribedObjects() []telemetry.ObjectIdentifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]telemetry.ObjectIdentifier, 0, len(s.subscribed))
	for id := range s.subscribed {
		out = append(out, id)
	}
	return out
}

// Drain starts an orderly shutdown: Active (or Connecting) -> Draining,
// release every held subscription exactly once, close the delivery
// channel so the transport can flush what is still buffered, then Closed.
// Called for explicit disconnects and liveness timeouts. Safe to call
// concurrently with Fail or another Drain; teardown runs once.
func (s *Session) Drain() {
	s.teardown(StateDraining)
}

// Fail is the direct any-state -> Closed transition for unrecoverable
// transport failures. Held subscriptions are still released exactly once;
// pending deliveries are discarded by the dead transport.
func (s *Session) Fail() {
	s.teardown(StateClosed)
}

func (s *Session) teardown(via State) {
	s.mu.Lock()
	if s.state == StateDraining || s.state == StateClosed {
		// A concurrent disconnect or failure got here first.
		s.mu.Unlock()
		return
	}
	s.state = via

	// Take ownership of the held interest so a racing explicit
	// unsubscribe (blocked on the mutex, then rejected by the state
	// check) can never double-decrement.
	held := s.subscribed
	s.subscribed = make(map[telemetry.ObjectIdentifier]int)
	s.mu.Unlock()

	for id, count := range held {
		for i := 0; i < count; i++ {
			s.registry.Unsubscribe(id, s.listener)
		}
	}

	// Closing the delivery channel stops new events; whatever is still
	// buffered stays readable so a draining transport can flush it.
	s.listener.Close()

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
}
