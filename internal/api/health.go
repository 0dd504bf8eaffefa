package api

import (
	"encoding/json"
	"net/http"

	"github.com/mediaops/stagehand/internal/server"
	"github.com/mediaops/stagehand/internal/version"
)

// HealthHandler handles liveness checks.
// Endpoint: GET /health
func HealthHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// StatusGetResponse is the response for GET /api/v1/status
type StatusGetResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StatusHandler reports process status and version.
// Endpoint: GET /api/v1/status
func StatusHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		resp := StatusGetResponse{
			Status:  "ok",
			Version: version.Version,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			srv.Logger.Error("error encoding response",
				"path", r.URL.Path, "error", err)
			http.Error(w, "Error encoding response", http.StatusInternalServerError)
		}
	})
}
