/*
Package stream implements the live side of the telemetry engine: the
subscription registry and the broadcast hub.

# Ownership

The Registry owns subscription entities; a session only ever holds a
*Listener handle. Tearing down a session releases its handles through
Unsubscribe, and the registry deletes a subscription the moment its
reference count reaches zero.

# Backpressure

Every listener has a bounded delivery channel. The hub offers events with
a non-blocking send: when the buffer is full the event is dropped for that
listener only and the listener's drop counter is incremented. Publishers
are never blocked by slow consumers, and no listener can starve another.
Crossing a drop-rate threshold is a signal for the session layer to
disconnect the consumer; the hub itself only counts.
*/
package stream
