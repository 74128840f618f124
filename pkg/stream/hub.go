package stream

import (
	"sync/atomic"

	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Hub fans published samples out to every listener subscribed to the
// sample's object. Delivery is non-blocking per listener: a slow consumer
// loses that sample and has its drop counter bumped, other listeners and
// the publisher are unaffected.
type Hub struct {
	registry *Registry

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub creates a hub fanning out over the given registry.
func NewHub(registry *Registry) *Hub {
	return &Hub{registry: registry}
}

// Publish delivers a sample to the object's broadcast group. Publishing
// to an object with no subscribers is a no-op. Per-listener delivery
// order is preserved for samples of the same object because Publish for
// one object is called in ingest order and each offer is a single channel
// send.
func (h *Hub) Publish(sample telemetry.Sample) {
	h.published.Add(1)

	listeners := h.registry.ListenersFor(sample.ObjectID)
	if len(listeners) == 0 {
		return
	}

	ev := Event{ObjectID: sample.ObjectID, Point: sample.Point()}
	for _, l := range listeners {
		if l.offer(ev) {
			h.delivered.Add(1)
		} else {
			h.dropped.Add(1)
		}
	}
}

// HubStats is a point-in-time snapshot of hub counters.
type HubStats struct {
	Published uint64 `json:"published"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
}

// Stats returns cumulative publish/delivery/drop counts.
func (h *Hub) Stats() HubStats {
	return HubStats{
		Published: h.published.Load(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
	}
}
