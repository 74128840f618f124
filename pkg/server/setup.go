package server

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/QuinntyneBrown/openmct/pkg/config"
	"github.com/QuinntyneBrown/openmct/pkg/export"
	"github.com/QuinntyneBrown/openmct/pkg/ingest"
	"github.com/QuinntyneBrown/openmct/pkg/query"
	"github.com/QuinntyneBrown/openmct/pkg/session"
	"github.com/QuinntyneBrown/openmct/pkg/simulator"
	"github.com/QuinntyneBrown/openmct/pkg/storage"
	"github.com/QuinntyneBrown/openmct/pkg/storage/badger"
	"github.com/QuinntyneBrown/openmct/pkg/storage/memory"
	"github.com/QuinntyneBrown/openmct/pkg/stream"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

// Engine bundles the wired components of the telemetry engine.
type Engine struct {
	Store    storage.Store
	Registry *stream.Registry
	Hub      *stream.Hub
	Pipeline *ingest.Pipeline
	Sessions *session.Manager

	Ingest *ingest.Handler
	Query  *query.Handler
	Export *export.Handler

	Simulator *simulator.Generator
}

// InitializeStorage opens the configured storage backend.
func InitializeStorage(cfg config.Config) (storage.Store, error) {
	if cfg.InMemory {
		log.Println("Using in-memory storage (no persistence)")
		return memory.New(), nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	log.Println("Initializing BadgerDB storage with Snappy compression...")
	store, err := badger.New(badger.Config{
		Path:        cfg.DataDir,
		MaxMemoryMB: cfg.MaxMemoryMB,
	})
	if err != nil {
		return nil, err
	}
	log.Println("BadgerDB storage initialized successfully")
	return store, nil
}

// NewEngine wires the engine: store -> pipeline -> hub -> registry ->
// sessions, plus the HTTP handlers over them.
func NewEngine(cfg config.Config, store storage.Store) *Engine {
	registry := stream.NewRegistry()
	hub := stream.NewHub(registry)
	pipeline := ingest.NewPipeline(store, hub)
	sessions := session.NewManager(registry)

	e := &Engine{
		Store:    store,
		Registry: registry,
		Hub:      hub,
		Pipeline: pipeline,
		Sessions: sessions,
		Ingest:   ingest.NewHandler(pipeline),
		Query:    query.NewHandler(store),
		Export:   export.NewHandler(store),
	}
	log.Println("Engine wired: ingest pipeline, query executor, broadcast hub, session manager")

	if cfg.Simulator.Enabled {
		objects := parseSimulatorObjects(cfg.Simulator.Objects)
		e.Simulator = simulator.New(pipeline, objects, config.SimulatorCadence)
		log.Printf("Simulator configured for %d object(s)", len(objects))
	}

	return e
}

func parseSimulatorObjects(raw []string) []telemetry.ObjectIdentifier {
	if len(raw) == 0 {
		return []telemetry.ObjectIdentifier{telemetry.NewIdentifier("sim", "sine")}
	}
	objects := make([]telemetry.ObjectIdentifier, 0, len(raw))
	for _, s := range raw {
		id, err := telemetry.ParseIdentifier(s)
		if err != nil {
			log.Printf("Skipping malformed simulator object %q: %v", s, err)
			continue
		}
		objects = append(objects, id)
	}
	return objects
}

// Uptime tracking for the health endpoint.
var startTime = time.Now()
