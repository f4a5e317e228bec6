package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chatbased/support-platform/internal/middleware"
	"github.com/chatbased/support-platform/internal/model"
	"github.com/chatbased/support-platform/pkg/logger"
)

// SessionCreator bootstraps a new session for an organization. The second
// return value is the persisted index entry's record id.
type SessionCreator interface {
	Create(ctx context.Context, organizationID string) (*model.Session, string, error)
}

// SessionHandler handles the session bootstrap endpoint.
type SessionHandler struct {
	sessions SessionCreator
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions SessionCreator, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   log,
	}
}

// Create handles GET /session/{organization_id}
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	organizationID := chi.URLParam(r, "organization_id")

	if err := middleware.ValidateOrganizationID(organizationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, indexID, err := h.sessions.Create(ctx, organizationID)
	if err != nil {
		h.logger.Error("failed to create session",
			zap.String("organization_id", organizationID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, &model.CreateSessionResponse{
		SessionID:           session.ID,
		PocketbaseSessionID: indexID,
	})
}
