// Package simulator generates synthetic telemetry at a fixed cadence and
// feeds it through the ingestion pipeline like any other producer, with
// no special-cased path into storage or the hub.
package simulator

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/ingest"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Generator produces an endless sample stream for a set of objects. It is
// restartable: Stop halts production, a later Start resumes it with fresh
// phase state.
type Generator struct {
	pipeline *ingest.Pipeline
	objects  []telemetry.ObjectIdentifier
	cadence  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a generator feeding the given pipeline.
func New(pipeline *ingest.Pipeline, objects []telemetry.ObjectIdentifier, cadence time.Duration) *Generator {
	if cadence <= 0 {
		cadence = time.Second
	}
	return &Generator{
		pipeline: pipeline,
		objects:  objects,
		cadence:  cadence,
	}
}

// Start begins producing samples until Stop or context cancellation.
// Starting a running generator is a no-op.
func (g *Generator) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})

	go g.run(runCtx, g.done)
	log.Printf("Simulator started: %d object(s), cadence %v", len(g.objects), g.cadence)
}

// Stop halts production and waits for the run loop to exit.
func (g *Generator) Stop() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel, g.done = nil, nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		log.Println("Simulator stopped")
	}
}

func (g *Generator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(g.cadence)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	phase := rng.Float64() * 2 * math.Pi

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tick++
			for i, id := range g.objects {
				// A slow sine wave with jitter reads plausibly on a
				// chart and exercises MinMax decimation.
				v := 50 + 40*math.Sin(phase+float64(tick)/20+float64(i)) + rng.Float64()*5

				batch := []telemetry.Sample{{
					ObjectID:  id,
					Timestamp: now,
					Value:     telemetry.Float64(v),
				}}
				if _, err := g.pipeline.Ingest(ctx, batch); err != nil {
					log.Printf("Simulator ingest failed for %s: %v", id, err)
				}
			}
		}
	}
}
