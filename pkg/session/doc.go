/*
Package session manages the lifecycle of live telemetry consumers.

# State machine

A session moves strictly forward:

	Connecting -> Active -> Draining -> Closed

Subscribe and Unsubscribe are only honored in Active. Draining is entered
exactly once, whether through a clean disconnect (Drain), a transport
error (Fail), or a liveness timeout; whichever path gets there first owns
teardown, and the others become no-ops. Teardown releases every unit of
interest the session holds in the registry, closes the delivery channel,
and moves the session to Closed. There is no resume: a reconnecting
client gets a fresh session and subscribes again.

# Liveness

Clients prove liveness with keepalive frames or pong responses. The
Manager sweeps periodically and drains any Active session whose last
sign of life is older than the liveness window, so an abandoned
connection cannot pin subscriptions forever.

# Transport

The websocket transport maps frames onto session operations. A single
write pump owns the connection for writes; the read loop only mutates
session state. After the read loop exits, the pump flushes buffered
deliveries, bounded by the drain timeout, before the close handshake.
*/
package session
