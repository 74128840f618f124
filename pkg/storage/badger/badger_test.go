package badger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	// Use in-memory mode for tests
	store, err := New(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStore_AppendAndRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := telemetry.NewIdentifier("sc", "fuel")
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	err := store.Append(ctx,
		telemetry.Sample{ObjectID: id, Timestamp: base.Add(time.Second), Value: telemetry.Float64(2)},
		telemetry.Sample{ObjectID: id, Timestamp: base, Value: telemetry.Float64(1)},
	)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	results, err := store.Range(ctx, id, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(results))
	}
	if !results[0].Timestamp.Equal(base) {
		t.Errorf("Expected ascending order, first timestamp was %v", results[0].Timestamp)
	}
}

func TestBadgerStore_RangeIsolatesObjects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Unix(1000, 0)

	fuel := telemetry.NewIdentifier("sc", "fuel")
	temp := telemetry.NewIdentifier("sc", "temp")

	store.Append(ctx,
		telemetry.Sample{ObjectID: fuel, Timestamp: base, Value: telemetry.Float64(1)},
		telemetry.Sample{ObjectID: temp, Timestamp: base, Value: telemetry.Float64(2)},
		telemetry.Sample{ObjectID: temp, Timestamp: base.Add(time.Second), Value: telemetry.Float64(3)},
	)

	results, err := store.Range(ctx, temp, base.Add(-time.Hour), base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 samples for temp, got %d", len(results))
	}
	for _, s := range results {
		if s.ObjectID != temp {
			t.Errorf("Range leaked sample for %s", s.ObjectID)
		}
	}
}

func TestBadgerStore_LastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := telemetry.NewIdentifier("a", "1")
	ts := time.Unix(100, 0)

	store.Append(ctx, telemetry.Sample{ObjectID: id, Timestamp: ts, Value: telemetry.Float64(5)})
	store.Append(ctx, telemetry.Sample{ObjectID: id, Timestamp: ts, Value: telemetry.Float64(9)})

	results, err := store.Range(ctx, id, time.Unix(0, 0), time.Unix(200, 0))
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 sample after overwrite, got %d", len(results))
	}
	if results[0].Value.Float != 9 {
		t.Errorf("Expected last-written value 9, got %v", results[0].Value)
	}
}

func TestBadgerStore_RangeBounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := telemetry.NewIdentifier("a", "1")

	for i := 0; i < 10; i++ {
		store.Append(ctx, telemetry.Sample{
			ObjectID:  id,
			Timestamp: time.Unix(int64(i*10), 0),
			Value:     telemetry.Float64(float64(i)),
		})
	}

	results, err := store.Range(ctx, id, time.Unix(20, 0), time.Unix(50, 0))
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("Expected 4 samples in [20,50], got %d", len(results))
	}
}

func TestBadgerStore_Persistence(t *testing.T) {
	// Use temp directory for persistence test
	tmpDir, err := os.MkdirTemp("", "badger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	id := telemetry.NewIdentifier("sc", "persistent")
	ts := time.Unix(500, 0)

	// Write to first instance
	{
		store, err := New(Config{Path: tmpDir})
		if err != nil {
			t.Fatalf("Failed to create storage: %v", err)
		}
		if err := store.Append(ctx, telemetry.Sample{ObjectID: id, Timestamp: ts, Value: telemetry.Float64(123.45)}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		store.Close()
	}

	// Read from second instance (reopens same directory)
	{
		store, err := New(Config{Path: tmpDir})
		if err != nil {
			t.Fatalf("Failed to reopen storage: %v", err)
		}
		defer store.Close()

		results, err := store.Range(ctx, id, time.Unix(0, 0), time.Unix(1000, 0))
		if err != nil {
			t.Fatalf("Range failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("Expected persisted sample, got %d results", len(results))
		}
		if results[0].Value.Float != 123.45 {
			t.Errorf("Expected value 123.45, got %v", results[0].Value)
		}
	}
}

func TestBadgerStore_CancelledContext(t *testing.T) {
	store := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	id := telemetry.NewIdentifier("a", "1")
	if err := store.Append(ctx, telemetry.Sample{ObjectID: id, Timestamp: time.Now(), Value: telemetry.Float64(1)}); err == nil {
		t.Error("Expected error for cancelled append, got nil")
	}
	if _, err := store.Range(ctx, id, time.Unix(0, 0), time.Now()); err == nil {
		t.Error("Expected error for cancelled range, got nil")
	}
}

func TestBadgerStore_Stats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Append(ctx,
		telemetry.Sample{ObjectID: telemetry.NewIdentifier("sc", "a"), Timestamp: time.Unix(10, 0), Value: telemetry.Float64(1)},
		telemetry.Sample{ObjectID: telemetry.NewIdentifier("sc", "b"), Timestamp: time.Unix(20, 0), Value: telemetry.Float64(2)},
	)

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalSamples != 2 {
		t.Errorf("Expected 2 samples, got %d", stats.TotalSamples)
	}
	if stats.TotalObjects != 2 {
		t.Errorf("Expected 2 objects, got %d", stats.TotalObjects)
	}
	if !stats.OldestSample.Equal(time.Unix(10, 0)) {
		t.Errorf("Wrong oldest sample: %v", stats.OldestSample)
	}
}
