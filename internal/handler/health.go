package handler

import (
	"context"
	"net/http"
)

// SessionBackend reports session store connectivity.
type SessionBackend interface {
	IsConnected() bool
}

// RecordBackend reports record store health.
type RecordBackend interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	sessions SessionBackend
	records  RecordBackend
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(sessions SessionBackend, records RecordBackend) *HealthHandler {
	return &HealthHandler{
		sessions: sessions,
		records:  records,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil || !h.sessions.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "session store not connected",
		})
		return
	}

	if h.records != nil {
		if err := h.records.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "record store unavailable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
