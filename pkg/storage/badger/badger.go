package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Store implements storage.Store using BadgerDB (LSM tree).
//
// Keys are [object_hash (8 bytes)][timestamp (8 bytes)], both big-endian,
// so one object's samples form a contiguous, time-ordered key range and
// Range is a prefix scan. Writing the same (object, timestamp) twice
// overwrites the key, which gives last-write-wins deduplication for free.
type Store struct {
	db *badger.DB
}

// Config holds BadgerDB configuration
type Config struct {
	// Path to store database files
	Path string

	// InMemory mode (for testing)
	InMemory bool

	// MaxMemoryMB limits BadgerDB memory usage in MB (0 = defaults)
	MaxMemoryMB int64
}

// New creates a BadgerDB storage backend
func New(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)

	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	// Keep memory bounded: badger's defaults assume a dedicated server.
	var memTableSize int64
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB * 1024 * 1024 / 3
	} else {
		memTableSize = 16 * 1024 * 1024
	}

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(3).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithMaxLevels(4).
		WithNumCompactors(1).
		WithValueThreshold(1024).
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{db: db}, nil
}

// Append durably stores samples. The write is committed before Append
// returns, so a subsequent Range always observes it.
func (s *Store) Append(ctx context.Context, samples ...telemetry.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.db.Update(func(txn *badger.Txn) error {
			for i, sample := range samples {
				// Check context periodically (every 100 samples)
				if i%100 == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}

				value, err := encodeSample(sample)
				if err != nil {
					return fmt.Errorf("failed to encode sample: %w", err)
				}

				if err := txn.Set(makeKey(sample.ObjectID, sample.Timestamp), value); err != nil {
					return fmt.Errorf("failed to write sample: %w", err)
				}
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("append cancelled: %w", ctx.Err())
	}
}

// Range returns one object's samples in [start, end], ascending. The scan
// seeks to the object's hash prefix at the start timestamp and stops at
// the first key past the end, so unrelated objects are never touched.
func (s *Store) Range(ctx context.Context, id telemetry.ObjectIdentifier, start, end time.Time) ([]telemetry.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type rangeResult struct {
		samples []telemetry.Sample
		err     error
	}
	done := make(chan rangeResult, 1)

	go func() {
		var res rangeResult
		res.err = s.db.View(func(txn *badger.Txn) error {
			prefix := objectPrefix(id)

			opts := badger.DefaultIteratorOptions
			opts.PrefetchSize = 100
			opts.Prefix = prefix

			it := txn.NewIterator(opts)
			defer it.Close()

			seek := makeKey(id, start)
			endKey := makeKey(id, end)

			var iterCount int
			for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
				iterCount++

				// Cancellation check every 1000 iterations so a long
				// scan never outlives its caller.
				if iterCount%1000 == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}

				item := it.Item()
				if bytes.Compare(item.Key(), endKey) > 0 {
					break
				}

				err := item.Value(func(val []byte) error {
					sample, err := decodeSample(val)
					if err != nil {
						return err
					}
					res.samples = append(res.samples, sample)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		done <- res
	}()

	select {
	case res := <-done:
		return res.samples, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("range cancelled: %w", ctx.Err())
	}
}

// Stats returns storage statistics
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type statsResult struct {
		stats *storage.Stats
		err   error
	}
	done := make(chan statsResult, 1)

	go func() {
		var res statsResult
		stats := &storage.Stats{}

		res.err = s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false

			it := txn.NewIterator(opts)
			defer it.Close()

			objects := make(map[uint64]bool)
			var oldest, newest time.Time
			var iterCount int

			for it.Rewind(); it.Valid(); it.Next() {
				iterCount++
				if iterCount%1000 == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}

				stats.TotalSamples++

				hash, ts := parseKey(it.Item().Key())
				objects[hash] = true

				if oldest.IsZero() || ts.Before(oldest) {
					oldest = ts
				}
				if newest.IsZero() || ts.After(newest) {
					newest = ts
				}
			}

			stats.TotalObjects = uint64(len(objects))
			stats.OldestSample = oldest
			stats.NewestSample = newest
			return nil
		})

		if res.err == nil {
			lsmSize, vlogSize := s.db.Size()
			stats.SizeBytes = uint64(lsmSize + vlogSize)
		}

		res.stats = stats
		done <- res
	}()

	select {
	case res := <-done:
		return res.stats, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("stats cancelled: %w", ctx.Err())
	}
}

// Close shuts down BadgerDB cleanly
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs BadgerDB's value log garbage collection to reclaim disk
// space. discardRatio: run GC if this fraction of a file can be discarded.
func (s *Store) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// objectPrefix returns the 8-byte hash prefix shared by all of one
// object's keys.
func objectPrefix(id telemetry.ObjectIdentifier) []byte {
	prefix := make([]byte, 8)
	binary.BigEndian.PutUint64(prefix, xxhash.Sum64String(id.String()))
	return prefix
}

// makeKey creates a sortable key: object_hash + timestamp
// Format: [object_hash (8 bytes)][timestamp (8 bytes)]
func makeKey(id telemetry.ObjectIdentifier, ts time.Time) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[0:8], xxhash.Sum64String(id.String()))
	binary.BigEndian.PutUint64(key[8:16], uint64(ts.UnixNano()))
	return key
}

// parseKey extracts the object hash and timestamp from a storage key
func parseKey(key []byte) (uint64, time.Time) {
	hash := binary.BigEndian.Uint64(key[0:8])
	tsNano := binary.BigEndian.Uint64(key[8:16])
	return hash, time.Unix(0, int64(tsNano))
}

// encodeSample serializes a sample to bytes
func encodeSample(s telemetry.Sample) ([]byte, error) {
	return json.Marshal(s)
}

// decodeSample deserializes bytes to a sample
func decodeSample(data []byte) (telemetry.Sample, error) {
	var s telemetry.Sample
	err := json.Unmarshal(data, &s)
	return s, err
}
