package stream

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Event is one live telemetry update delivered to a listener.
type Event struct {
	ObjectID telemetry.ObjectIdentifier `json:"object_id"`
	Point    telemetry.Point            `json:"point"`
}

// Listener is the delivery end of a subscription: a bounded channel the
// hub offers events into. A full channel drops, never blocks the
// publisher; drops are counted per listener so the session layer can spot
// consumers that cannot keep up.
type Listener struct {
	id    uuid.UUID
	drops atomic.Uint64

	mu     sync.Mutex // serializes offer against Close
	ch     chan Event
	closed bool
}

// NewListener creates a listener with a delivery buffer of the given size.
func NewListener(buffer int) *Listener {
	if buffer < 1 {
		buffer = 1
	}
	return &Listener{
		id: uuid.New(),
		ch: make(chan Event, buffer),
	}
}

// ID returns the listener's unique handle identity.
func (l *Listener) ID() uuid.UUID {
	return l.id
}

// Events is the delivery channel. It is closed when the owning session
// tears the listener down.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Drops returns how many events were dropped because the delivery channel
// was full.
func (l *Listener) Drops() uint64 {
	return l.drops.Load()
}

// offer attempts non-blocking delivery. Reports whether the event was
// accepted. A closed listener silently refuses; a publish racing a
// teardown must never panic on a closed channel.
func (l *Listener) offer(ev Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	select {
	case l.ch <- ev:
		return true
	default:
		l.drops.Add(1)
		return false
	}
}

// Close closes the delivery channel. Safe to call more than once.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
}
