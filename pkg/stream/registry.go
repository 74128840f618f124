package stream

import (
	"sync"

	"github.com/google/uuid"

	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Registry tracks which listeners are interested in which objects. It
// owns subscription entities outright; sessions only hold listener
// handles.
//
// A subscription's reference count is the number of logical subscribe
// calls not yet matched by an unsubscribe. Subscribing the same listener
// to the same object twice bumps the count without duplicating group
// membership; the subscription and its broadcast group are deleted the
// moment the count reaches zero, so a zero-count subscription never
// exists.
//
// Entries live in a sync.Map keyed by object identifier with a mutex per
// entry, so mutations for different objects never serialize on a shared
// lock.
type Registry struct {
	subs sync.Map // telemetry.ObjectIdentifier -> *subscription
}

type subscription struct {
	mu        sync.Mutex
	refs      map[uuid.UUID]int       // per-listener subscribe count
	listeners map[uuid.UUID]*Listener // broadcast group membership
	gone      bool                    // set when deleted from the registry map
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Subscribe registers a listener's interest in an object. The first
// subscribe for an object materializes its broadcast group; duplicate
// subscribes from the same listener increment the reference count only.
func (r *Registry) Subscribe(id telemetry.ObjectIdentifier, l *Listener) {
	for {
		v, _ := r.subs.LoadOrStore(id, &subscription{
			refs:      make(map[uuid.UUID]int),
			listeners: make(map[uuid.UUID]*Listener),
		})
		sub := v.(*subscription)

		sub.mu.Lock()
		if sub.gone {
			// Lost a race with the final unsubscribe; the entry is
			// already deleted from the map, so start over.
			sub.mu.Unlock()
			continue
		}
		sub.refs[l.ID()]++
		sub.listeners[l.ID()] = l
		sub.mu.Unlock()
		return
	}
}

// Unsubscribe releases one unit of a listener's interest. The listener
// leaves the broadcast group when its own count reaches zero, and the
// whole subscription is deleted when no interest remains. Unsubscribing a
// listener that is not subscribed is a no-op.
func (r *Registry) Unsubscribe(id telemetry.ObjectIdentifier, l *Listener) {
	v, ok := r.subs.Load(id)
	if !ok {
		return
	}
	sub := v.(*subscription)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.gone {
		return
	}

	count, ok := sub.refs[l.ID()]
	if !ok {
		return
	}
	count--
	if count > 0 {
		sub.refs[l.ID()] = count
		return
	}

	delete(sub.refs, l.ID())
	delete(sub.listeners, l.ID())
	if len(sub.refs) == 0 {
		sub.gone = true
		r.subs.Delete(id)
	}
}

// ListenersFor returns a point-in-time snapshot of the broadcast group
// for an object. The returned slice is the caller's to keep; concurrent
// registry mutations never invalidate it.
func (r *Registry) ListenersFor(id telemetry.ObjectIdentifier) []*Listener {
	v, ok := r.subs.Load(id)
	if !ok {
		return nil
	}
	sub := v.(*subscription)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.listeners) == 0 {
		return nil
	}
	out := make([]*Listener, 0, len(sub.listeners))
	for _, l := range sub.listeners {
		out = append(out, l)
	}
	return out
}

// RefCount returns the total reference count for an object's
// subscription, 0 when none exists.
func (r *Registry) RefCount(id telemetry.ObjectIdentifier) int {
	v, ok := r.subs.Load(id)
	if !ok {
		return 0
	}
	sub := v.(*subscription)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	total := 0
	for _, n := range sub.refs {
		total += n
	}
	return total
}
