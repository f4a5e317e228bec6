// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"
)

// Version is the reported application version.
const Version = "1.0.0"

// RootHandler handles the liveness endpoint.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// Root handles GET /
func (h *RootHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "ChatBased is running",
		"version": Version,
	})
}
