package handlers

import (
	"net/http"

	"github.com/swiftcart/api/internal/services"
)

// HealthHandlers exposes liveness and readiness endpoints.
type HealthHandlers struct {
	system services.SystemService
}

// NewHealthHandlers constructs health handlers. A nil system service leaves
// /readyz reporting only process liveness.
func NewHealthHandlers(system services.SystemService) *HealthHandlers {
	return &HealthHandlers{system: system}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz probes downstream dependencies and reports readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	health, err := h.system.Health(r.Context())
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "health check failed"})
		return
	}

	deps := make([]dependencyPayload, 0, len(health.Dependencies))
	for _, dep := range health.Dependencies {
		entry := dependencyPayload{
			Name:      dep.Name,
			Healthy:   dep.Healthy,
			LatencyMS: dep.Latency.Milliseconds(),
		}
		if dep.Err != nil {
			entry.Error = dep.Err.Error()
		}
		deps = append(deps, entry)
	}

	status := http.StatusOK
	label := "ok"
	if !health.Healthy {
		status = http.StatusServiceUnavailable
		label = "degraded"
	}

	writeJSONResponse(w, status, readyzResponse{
		Status:       label,
		CheckedAt:    formatTime(health.CheckedAt),
		Dependencies: deps,
	})
}

type readyzResponse struct {
	Status       string              `json:"status"`
	CheckedAt    string              `json:"checked_at"`
	Dependencies []dependencyPayload `json:"dependencies"`
}

type dependencyPayload struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}
