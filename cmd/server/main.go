package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/QuinntyneBrown/openmct/pkg/config"
	"github.com/QuinntyneBrown/openmct/pkg/server"
)

const (
	serverReadTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
		})
	}

	log.Println("Starting telemetry engine...")

	store, err := server.InitializeStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	engine := server.NewEngine(cfg, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Session liveness sweeper
	wg.Add(1)
	go func() {
		defer wg.Done()
		engine.Sessions.Run(ctx)
	}()
	log.Println("Session liveness sweeper started")

	// BadgerDB value log GC
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.RunBadgerGC(ctx, store)
	}()

	if engine.Simulator != nil {
		engine.Simulator.Start(ctx)
		defer engine.Simulator.Stop()
	}

	// Create router
	router := mux.NewRouter()

	// CORS middleware for API access
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// API routes
	api := router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/ingest", engine.Ingest.HandleIngest).Methods("POST")
	api.HandleFunc("/query", engine.Query.HandleQuery).Methods("GET")
	api.HandleFunc("/export", engine.Export.HandleExport).Methods("GET")
	api.HandleFunc("/stats", engine.HandleStats).Methods("GET")
	api.HandleFunc("/health", server.HandleHealth).Methods("GET")
	api.HandleFunc("/ws", engine.Sessions.HandleWebSocket()).Methods("GET")

	// NOTE: no WriteTimeout, it would kill long-lived websocket
	// sessions. Handler-level deadlines bound the HTTP endpoints.
	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: serverReadTimeout,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.Port)
		log.Println("API endpoints:")
		log.Println("   POST /v1/ingest   - Ingest sample batches")
		log.Println("   GET  /v1/query    - Range queries with decimation")
		log.Println("   GET  /v1/export   - Full-fidelity range export")
		log.Println("   GET  /v1/stats    - Engine statistics")
		log.Println("   GET  /v1/ws       - Live telemetry sessions")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	cancel()
	wg.Wait()
	log.Println("Shutdown complete")
}
