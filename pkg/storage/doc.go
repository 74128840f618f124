/*
Package storage provides the pluggable sample store abstraction for the
telemetry engine.

# Store Interface

The engine talks to storage only through the Store interface:

	type Store interface {
	    Append(ctx context.Context, samples ...telemetry.Sample) error
	    Range(ctx context.Context, id telemetry.ObjectIdentifier, start, end time.Time) ([]telemetry.Sample, error)
	    Stats(ctx context.Context) (*Stats, error)
	    Close() error
	}

Two backends implement it:

  - memory: in-memory series per object, for tests and development
  - badger: BadgerDB (LSM tree + Snappy compression) for persistence

# Contract

Append is durable before it returns: a Range issued after a successful
Append always observes the appended samples (read-after-write). Range
returns samples sorted ascending by timestamp, deduplicated by
(object, timestamp) keeping the most recently appended value. Samples may
be appended out of order; ordering is the read side's job.

Both operations take a context and are cancellable; a cancelled Range is
simply abandoned.
*/
package storage
