// Package gateway exposes the index engine over a JSON HTTP API, plus a
// websocket stats stream for dashboards.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Kauxtubh/pinecone"
	"github.com/Kauxtubh/pinecone/filter"
	"github.com/Kauxtubh/pinecone/internal/config"
	"github.com/Kauxtubh/pinecone/internal/maintenance"
)

// Gateway serves the HTTP API for one engine instance
type Gateway struct {
	db        *pinecone.DB
	config    *config.Config
	scheduler *maintenance.Scheduler
	upgrader  websocket.Upgrader
	started   time.Time
	logger    *log.Logger
}

// New creates a gateway. The scheduler is optional; when present the
// /snapshot endpoint routes through it so task status stays accurate.
func New(db *pinecone.DB, cfg *config.Config, scheduler *maintenance.Scheduler, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}

	return &Gateway{
		db:        db,
		config:    cfg,
		scheduler: scheduler,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started: time.Now(),
		logger:  logger,
	}
}

// Handler builds the route table. Split from Start so tests can mount
// it on httptest servers.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /ws/stats", g.handleStatsSocket)
	mux.HandleFunc("POST /snapshot", g.handleSnapshot)

	mux.HandleFunc("POST /indexes", g.handleCreateIndex)
	mux.HandleFunc("GET /indexes", g.handleListIndexes)
	mux.HandleFunc("GET /indexes/{name}", g.handleDescribeIndex)
	mux.HandleFunc("DELETE /indexes/{name}", g.handleDeleteIndex)
	mux.HandleFunc("GET /indexes/{name}/stats", g.handleIndexStats)

	mux.HandleFunc("POST /indexes/{name}/vectors/upsert", g.handleUpsert)
	mux.HandleFunc("POST /indexes/{name}/query", g.handleQuery)
	mux.HandleFunc("POST /indexes/{name}/vectors/delete", g.handleDeleteVectors)
	mux.HandleFunc("GET /indexes/{name}/vectors/fetch", g.handleFetch)

	return mux
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully and writes a final snapshot.
func (g *Gateway) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", g.config.Port),
		Handler: g.Handler(),
	}

	go func() {
		g.logger.Printf("[Gateway] Listening on port %d", g.config.Port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			g.logger.Printf("[Gateway] HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	g.logger.Println("[Gateway] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		g.logger.Printf("[Gateway] Server shutdown error: %v", err)
	}

	// Persist state on the way out so a restart resumes where we left off.
	if err := g.db.SaveSnapshot(shutdownCtx); err != nil {
		g.logger.Printf("[Gateway] Final snapshot failed: %v", err)
	}

	return nil
}

// handleSnapshot handles POST /snapshot
// Response: 202 {"status": "snapshot started"}
func (g *Gateway) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	// Run in the background so large indexes don't hold the request open.
	go func() {
		if g.scheduler != nil {
			if err := g.scheduler.RunTask(context.Background(), "snapshot"); err != nil {
				g.logger.Printf("[Gateway] Snapshot task failed: %v", err)
			}
			return
		}
		if err := g.db.SaveSnapshot(context.Background()); err != nil {
			g.logger.Printf("[Gateway] Snapshot failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "snapshot started"})
}

// statusForError maps engine errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pinecone.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pinecone.ErrAlreadyExists),
		errors.Is(err, pinecone.ErrIndexNotReady):
		return http.StatusConflict
	case errors.Is(err, pinecone.ErrInvalidArgument),
		errors.Is(err, pinecone.ErrDimensionMismatch),
		errors.Is(err, filter.ErrInvalidFilter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError writes an engine error with its mapped status code.
func writeEngineError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusForError(err), err.Error())
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
