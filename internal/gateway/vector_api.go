package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/Kauxtubh/pinecone"
	"github.com/Kauxtubh/pinecone/filter"
	"github.com/Kauxtubh/pinecone/storage"
)

// handleUpsert handles POST /indexes/{name}/vectors/upsert
// Request: {"namespace": "", "vectors": [{"id": "a", "values": [...], "metadata": {...}}]}
// Response: {"upsertedCount": 2}
func (g *Gateway) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Namespace string           `json:"namespace,omitempty"`
		Vectors   []storage.Record `json:"vectors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	count, err := g.db.Upsert(r.Context(), r.PathValue("name"), req.Namespace, req.Vectors)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"upsertedCount": count})
}

// handleQuery handles POST /indexes/{name}/query
// Request: {"namespace": "", "vector": [...], "topK": 10,
//           "filter": {...}, "includeValues": false, "includeMetadata": true}
// Response: {"matches": [...], "namespace": ""}
func (g *Gateway) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Namespace       string          `json:"namespace,omitempty"`
		Vector          []float32       `json:"vector"`
		TopK            int             `json:"topK"`
		Filter          json.RawMessage `json:"filter,omitempty"`
		IncludeValues   bool            `json:"includeValues,omitempty"`
		IncludeMetadata bool            `json:"includeMetadata,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	query := pinecone.QueryRequest{
		Namespace:       req.Namespace,
		Vector:          req.Vector,
		TopK:            req.TopK,
		IncludeValues:   req.IncludeValues,
		IncludeMetadata: req.IncludeMetadata,
	}

	if len(req.Filter) > 0 && string(req.Filter) != "null" {
		expr, err := filter.Parse(req.Filter)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		query.Filter = expr
	}

	resp, err := g.db.Query(r.Context(), r.PathValue("name"), query)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDeleteVectors handles POST /indexes/{name}/vectors/delete
// Request: {"namespace": "", "ids": ["a", "b"]} or {"namespace": "x", "deleteAll": true}
// Response: {}
func (g *Gateway) handleDeleteVectors(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Namespace string   `json:"namespace,omitempty"`
		IDs       []string `json:"ids,omitempty"`
		DeleteAll bool     `json:"deleteAll,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if _, err := g.db.Delete(r.Context(), r.PathValue("name"), req.Namespace, req.IDs, req.DeleteAll); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// handleFetch handles GET /indexes/{name}/vectors/fetch?namespace=&ids=a&ids=b
// Response: {"vectors": {"a": {...}}, "namespace": ""}
func (g *Gateway) handleFetch(w http.ResponseWriter, r *http.Request) {
	namespace := r.URL.Query().Get("namespace")
	ids := r.URL.Query()["ids"]

	records, err := g.db.Fetch(r.Context(), r.PathValue("name"), namespace, ids)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vectors":   records,
		"namespace": namespace,
	})
}
