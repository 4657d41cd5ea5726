// Health and readiness probe handlers for the metrics generator.

package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getmockd/metricsd/pkg/httputil"
)

// handleHealth handles the liveness probe endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"instance":  s.instanceID,
	})
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	ticks := s.registry.Ticks()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]any{
			"updater": map[string]any{"ticks": ticks, "status": "ok"},
		},
	})
}

// handleNotFound answers every unregistered path.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteNotFound(w, "not_found",
		fmt.Sprintf("no handler for %s; available endpoints: /metrics, /healthz, /readyz", r.URL.Path))
}
