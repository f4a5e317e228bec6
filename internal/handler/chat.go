package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/chatbased/support-platform/internal/middleware"
	"github.com/chatbased/support-platform/internal/model"
	"github.com/chatbased/support-platform/pkg/logger"
)

// ChatProvider handles one chat turn.
type ChatProvider interface {
	HandleChat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error)
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	service ChatProvider
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc ChatProvider, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		logger:  log,
	}
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateOrganizationID(req.OrganizationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.HandleChat(ctx, &req)
	if err != nil {
		if errors.Is(err, model.ErrOrganizationNotFound) {
			writeError(w, http.StatusNotFound, "Organization not found")
			return
		}
		h.logger.Error("failed to handle chat",
			zap.String("organization_id", req.OrganizationID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to handle chat")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
