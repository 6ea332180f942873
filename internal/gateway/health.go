package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string        `json:"status"`
	Uptime    time.Duration `json:"uptime_seconds"`
	Providers int           `json:"providers"`
	Queued    int           `json:"queued,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Uptime: time.Since(g.startedAt) / time.Second,
		}

		if g.registry != nil {
			resp.Providers = len(g.registry.List())
		}
		if g.queue != nil {
			if n, err := g.queue.PendingCount(r.Context()); err == nil {
				resp.Queued = n
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
