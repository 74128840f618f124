package storage

import (
	"context"
	"errors"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// ErrUnavailable is returned when the backing store cannot serve a call.
// It is transient: callers may retry with backoff, the engine never does.
var ErrUnavailable = errors.New("sample store unavailable")

// Store defines the contract for sample storage backends.
// Implementations: memory (testing), badger (production)
type Store interface {
	// Append durably stores samples. It returns only after the samples
	// are retrievable by Range. Appends to different objects must not
	// block each other; appends to the same object may serialize.
	Append(ctx context.Context, samples ...telemetry.Sample) error

	// Range returns samples for one object within [start, end], sorted
	// ascending by timestamp and deduplicated by timestamp keeping the
	// most recently appended value.
	Range(ctx context.Context, id telemetry.ObjectIdentifier, start, end time.Time) ([]telemetry.Sample, error)

	// Stats returns storage statistics
	Stats(ctx context.Context) (*Stats, error)

	// Close cleanly shuts down the storage
	Close() error
}

// Stats provides storage health and usage info
type Stats struct {
	// Total samples stored
	TotalSamples uint64 `json:"total_samples"`

	// Distinct object identifiers seen
	TotalObjects uint64 `json:"total_objects"`

	// Storage size in bytes
	SizeBytes uint64 `json:"size_bytes"`

	// Oldest sample timestamp
	OldestSample time.Time `json:"oldest_sample"`

	// Newest sample timestamp
	NewestSample time.Time `json:"newest_sample"`
}
