package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Store keeps samples in memory. Data is lost on restart.
// Useful for testing and development.
//
// Each object gets its own series with its own lock, so appends to
// different objects never contend.
type Store struct {
	series sync.Map // telemetry.ObjectIdentifier -> *series
}

type series struct {
	mu      sync.RWMutex
	samples []telemetry.Sample // arrival order
}

// New creates an in-memory storage backend
func New() *Store {
	return &Store{}
}

// Append stores samples in memory
func (s *Store) Append(ctx context.Context, samples ...telemetry.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, sample := range samples {
		v, _ := s.series.LoadOrStore(sample.ObjectID, &series{})
		ser := v.(*series)
		ser.mu.Lock()
		ser.samples = append(ser.samples, sample)
		ser.mu.Unlock()
	}
	return nil
}

// Range returns samples for one object in [start, end], sorted ascending
// and deduplicated by timestamp with last-write-wins.
func (s *Store) Range(ctx context.Context, id telemetry.ObjectIdentifier, start, end time.Time) ([]telemetry.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, ok := s.series.Load(id)
	if !ok {
		return nil, nil
	}
	ser := v.(*series)

	ser.mu.RLock()
	// Walk in arrival order so a later append at the same timestamp
	// overwrites the earlier one.
	dedup := make(map[int64]telemetry.Sample)
	for _, sample := range ser.samples {
		if sample.Timestamp.Before(start) || sample.Timestamp.After(end) {
			continue
		}
		dedup[sample.Timestamp.UnixNano()] = sample
	}
	ser.mu.RUnlock()

	results := make([]telemetry.Sample, 0, len(dedup))
	for _, sample := range dedup {
		results = append(results, sample)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.Before(results[j].Timestamp)
	})
	return results, nil
}

// Stats returns storage statistics
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &storage.Stats{}
	var oldest, newest time.Time

	s.series.Range(func(_, v interface{}) bool {
		ser := v.(*series)
		ser.mu.RLock()
		stats.TotalObjects++
		stats.TotalSamples += uint64(len(ser.samples))
		for _, sample := range ser.samples {
			if oldest.IsZero() || sample.Timestamp.Before(oldest) {
				oldest = sample.Timestamp
			}
			if newest.IsZero() || sample.Timestamp.After(newest) {
				newest = sample.Timestamp
			}
		}
		ser.mu.RUnlock()
		return true
	})

	stats.OldestSample = oldest
	stats.NewestSample = newest
	// Rough size estimate (each sample ~100 bytes)
	stats.SizeBytes = stats.TotalSamples * 100

	return stats, nil
}

// Close is a no-op for memory storage
func (s *Store) Close() error {
	return nil
}
