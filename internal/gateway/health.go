package gateway

import (
	"net/http"
	"time"

	"github.com/Kauxtubh/pinecone/internal/version"
)

// handleHealth handles GET /health
// Response: {"status": "ok", "version": "...", "uptime_seconds": 12, "indexes": 3}
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        version.Info(),
		"uptime_seconds": int64(time.Since(g.started).Seconds()),
		"indexes":        len(g.db.ListIndexes(r.Context())),
	})
}
