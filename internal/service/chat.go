package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chatbased/support-platform/internal/agent"
	"github.com/chatbased/support-platform/internal/model"
	"github.com/chatbased/support-platform/internal/pocketbase"
	"github.com/chatbased/support-platform/pkg/logger"
	"github.com/chatbased/support-platform/pkg/metrics"
)

// OrganizationsCollection is the record store collection holding tenants.
const OrganizationsCollection = "organizations"

// AgentName is the tenant-agnostic agent identity.
const AgentName = "chatbased"

// AgentRunner drives one agent run to completion.
type AgentRunner interface {
	Run(ctx context.Context, spec *agent.Spec, session *model.Session, query string) ([]agent.Event, error)
}

// ChatService orchestrates one chat turn: session resolution, tenant
// configuration, the agent run and event reduction.
type ChatService struct {
	sessions *SessionManager
	records  RecordStore
	runner   AgentRunner
	tools    []agent.Tool
	model    string
	logger   *logger.Logger
}

// NewChatService creates a chat service.
func NewChatService(
	sessions *SessionManager,
	records RecordStore,
	runner AgentRunner,
	tools []agent.Tool,
	modelID string,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		sessions: sessions,
		records:  records,
		runner:   runner,
		tools:    tools,
		model:    modelID,
		logger:   log,
	}
}

// HandleChat drives one chat turn to completion and reduces the run's event
// stream into a structured response. A missing organization yields
// model.ErrOrganizationNotFound with no agent run.
func (s *ChatService) HandleChat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	sessionID := ""
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}

	session, err := s.sessions.ResolveOrCreate(ctx, req.OrganizationID, sessionID, req.Reset)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues(req.OrganizationID, "error").Inc()
		return nil, err
	}

	org, err := s.loadOrganization(ctx, req.OrganizationID)
	if err != nil {
		status := "error"
		if errors.Is(err, model.ErrOrganizationNotFound) {
			status = "organization_not_found"
		}
		metrics.ChatTurnsTotal.WithLabelValues(req.OrganizationID, status).Inc()
		return nil, err
	}

	spec := &agent.Spec{
		Name:        AgentName,
		Description: "Support Agent",
		Model:       s.model,
		Instruction: composeInstruction(org, session.State),
		Tools:       s.tools,
	}

	events, err := s.runner.Run(ctx, spec, session, req.Query)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues(req.OrganizationID, "error").Inc()
		return nil, err
	}

	finalResponse, thoughtProcess := s.reduce(events, session)

	metrics.ChatTurnsTotal.WithLabelValues(req.OrganizationID, "success").Inc()

	return &model.ChatResponse{
		FinalResponse:  finalResponse,
		ThoughtProcess: thoughtProcess,
		SessionID:      session.ID,
		OrganizationID: req.OrganizationID,
	}, nil
}

// reduce folds the event stream left to right: the last final event wins,
// intermediate fragments accumulate in emission order, and action events are
// observed for diagnostic logging only.
func (s *ChatService) reduce(events []agent.Event, session *model.Session) (string, []string) {
	finalResponse := ""
	thoughtProcess := make([]string, 0)

	for _, ev := range events {
		switch e := ev.(type) {
		case agent.EventFinal:
			finalResponse = e.Text
		case agent.EventThought:
			thoughtProcess = append(thoughtProcess, e.Text)
		case agent.EventAction:
			s.logger.Debug("agent action invoked",
				zap.String("organization_id", session.OrganizationID),
				zap.String("session_id", session.ID),
				zap.String("tool", e.Name),
				zap.String("args", e.Args),
			)
		}
	}

	return finalResponse, thoughtProcess
}

func (s *ChatService) loadOrganization(ctx context.Context, organizationID string) (*model.Organization, error) {
	record, err := s.records.GetOne(ctx, OrganizationsCollection, organizationID)
	if err != nil {
		if errors.Is(err, pocketbase.ErrNotFound) {
			return nil, model.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	return &model.Organization{
		ID:                    record.ID,
		Name:                  record.GetString("name"),
		SystemInstruction:     record.GetString("system_instruction"),
		AdditionalInstruction: record.GetString("additional_instruction"),
	}, nil
}

// composeInstruction concatenates the fixed role preamble, the operational
// directive, the tenant's instruction fragments and the session's temporal
// context into the agent's instruction text.
func composeInstruction(org *model.Organization, state model.SessionState) string {
	return fmt.Sprintf(`You are a support agent for %s. Your role is to help the customer with their issues
and answer any questions they have regarding the organization. Don't explicitly ask for the ticket details
that they might want to provide. Assume the appropriate ticket details such as the title, description, etc.
and don't mention these backend details to the customer. Get their details such as name, email & phone only
if they want to raise a ticket or address some issue and provided details for the same.

%s
%s

Current date is %s in yyyy-mm-dd format and time is %s. Today is %s`,
		org.Name,
		org.SystemInstruction,
		org.AdditionalInstruction,
		state.Date,
		state.Time,
		state.Day,
	)
}
