package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/Kauxtubh/pinecone/index"
)

// handleCreateIndex handles POST /indexes
// Request: {"name": "products", "dimension": 384, "metric": "cosine"}
// Response: 201 with the index description
func (g *Gateway) handleCreateIndex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Dimension int    `json:"dimension"`
		Metric    string `json:"metric,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.Metric == "" {
		req.Metric = "cosine"
	}
	metric, err := index.ParseMetric(req.Metric)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := g.db.CreateIndex(r.Context(), req.Name, req.Dimension, metric); err != nil {
		writeEngineError(w, err)
		return
	}

	desc, err := g.db.DescribeIndex(r.Context(), req.Name)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	g.logger.Printf("[Gateway] Created index %q (dimension=%d, metric=%s)", req.Name, req.Dimension, metric)
	writeJSON(w, http.StatusCreated, desc)
}

// handleListIndexes handles GET /indexes
// Response: {"indexes": [...]}
func (g *Gateway) handleListIndexes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"indexes": g.db.ListIndexes(r.Context()),
	})
}

// handleDescribeIndex handles GET /indexes/{name}
func (g *Gateway) handleDescribeIndex(w http.ResponseWriter, r *http.Request) {
	desc, err := g.db.DescribeIndex(r.Context(), r.PathValue("name"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, desc)
}

// handleDeleteIndex handles DELETE /indexes/{name}
// Response: {"status": "deleted"}
func (g *Gateway) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := g.db.DeleteIndex(r.Context(), name); err != nil {
		writeEngineError(w, err)
		return
	}

	g.logger.Printf("[Gateway] Deleted index %q", name)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleIndexStats handles GET /indexes/{name}/stats
func (g *Gateway) handleIndexStats(w http.ResponseWriter, r *http.Request) {
	stats, err := g.db.DescribeIndexStats(r.Context(), r.PathValue("name"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
