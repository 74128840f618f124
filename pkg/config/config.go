package config

import "time"

// Server defaults
const (
	DefaultPort        = "8080"
	DefaultDataDir     = "./data/telemetry"
	DefaultMaxMemoryMB = 48
)

// Query timeouts and defaults
const (
	QueryTimeout         = 30 * time.Second
	QueryDefaultWindow   = 1 * time.Hour
	QueryDefaultSizeHint = 1000
	QueryMaxSizeHint     = 5000
)

// Ingest timeouts and limits
const (
	IngestTimeout      = 5 * time.Second
	IngestStatsTimeout = 5 * time.Second
)

// Export defaults and limits
const (
	DefaultExportWindow = 24 * time.Hour
	MaxExportWindow     = 30 * 24 * time.Hour
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)

// Session configuration
const (
	// SessionDeliveryBuffer bounds each listener's delivery channel.
	SessionDeliveryBuffer = 256

	// SessionLivenessWindow is how long a session may go without a
	// keepalive before it is drained.
	SessionLivenessWindow = 90 * time.Second

	// SessionSweepInterval is how often idle sessions are checked.
	SessionSweepInterval = 15 * time.Second

	// SessionDrainTimeout bounds how long Draining waits for pending
	// deliveries to flush before they are discarded.
	SessionDrainTimeout = 5 * time.Second
)

// Simulator defaults
const (
	SimulatorCadence = 1 * time.Second
)

// Storage maintenance
const (
	BadgerGCInterval     = 10 * time.Minute
	BadgerGCDiscardRatio = 0.5
)
