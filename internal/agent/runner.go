package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatbased/support-platform/internal/llm"
	"github.com/chatbased/support-platform/internal/model"
	"github.com/chatbased/support-platform/pkg/logger"
	"github.com/chatbased/support-platform/pkg/metrics"
)

// HistoryStore persists and replays conversation messages.
type HistoryStore interface {
	Append(ctx context.Context, msg *model.Message) (uint64, error)
	Recent(ctx context.Context, organizationID, sessionID string, limit int) ([]model.Message, error)
}

// Runner executes agent runs against an LLM backend. It is safe for
// concurrent use across sessions.
type Runner struct {
	llmClient    llm.Client
	history      HistoryStore
	maxTurns     int
	historyLimit int
	logger       *logger.Logger
}

// NewRunner creates a runner bound to an LLM backend and a history store.
func NewRunner(client llm.Client, history HistoryStore, maxTurns, historyLimit int, log *logger.Logger) *Runner {
	if maxTurns <= 0 {
		maxTurns = 8
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Runner{
		llmClient:    client,
		history:      history,
		maxTurns:     maxTurns,
		historyLimit: historyLimit,
		logger:       log,
	}
}

// Run submits the query as a new user message, drives the model loop to
// completion and returns all emitted events in order. The run is a single
// synchronous unit of work.
func (r *Runner) Run(ctx context.Context, spec *Spec, session *model.Session, query string) ([]Event, error) {
	start := time.Now()
	log := r.logger.WithSession(session.OrganizationID, session.ID)

	prior, err := r.history.Recent(ctx, session.OrganizationID, session.ID, r.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	transcript := make([]llm.ChatMessage, 0, len(prior)+1)
	for _, msg := range prior {
		transcript = append(transcript, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	transcript = append(transcript, llm.ChatMessage{Role: llm.RoleUser, Content: query})

	if _, err := r.history.Append(ctx, newHistoryMessage(session, model.RoleUser, query)); err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}

	tools := make([]llm.ToolDefinition, len(spec.Tools))
	for i, t := range spec.Tools {
		tools[i] = llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}

	callCtx := &CallContext{State: &session.State}

	var events []Event
	var tokensIn, tokensOut int

	for turn := 0; turn < r.maxTurns; turn++ {
		resp, err := r.llmClient.Complete(ctx, &llm.CompletionRequest{
			Model:    spec.Model,
			System:   spec.Instruction,
			Messages: transcript,
			Tools:    tools,
		})
		if err != nil {
			metrics.RecordAgentRun(spec.Model, "error", time.Since(start).Seconds(), tokensIn, tokensOut)
			return nil, fmt.Errorf("agent run failed: %w", err)
		}
		tokensIn += resp.TokensIn
		tokensOut += resp.TokensOut

		if len(resp.ToolCalls) == 0 {
			if resp.Content != "" {
				events = append(events, EventFinal{Text: resp.Content})
				if _, err := r.history.Append(ctx, newHistoryMessage(session, model.RoleAssistant, resp.Content)); err != nil {
					log.Warn("failed to record assistant message", zap.Error(err))
				}
			}
			break
		}

		// Text accompanying tool calls is intermediate reasoning.
		if resp.Content != "" {
			events = append(events, EventThought{Text: resp.Content})
		}

		transcript = append(transcript, llm.ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			events = append(events, EventAction{Name: call.Name, Args: call.Arguments})
			result := r.invoke(ctx, spec, callCtx, call, log)
			transcript = append(transcript, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	metrics.RecordAgentRun(spec.Model, "success", time.Since(start).Seconds(), tokensIn, tokensOut)
	return events, nil
}

// invoke executes one tool call and marshals its structured result for the
// model.
func (r *Runner) invoke(ctx context.Context, spec *Spec, cc *CallContext, call llm.ToolCall, log *logger.Logger) string {
	log.Info("agent tool call",
		zap.String("tool", call.Name),
		zap.String("args", call.Arguments),
	)

	tool := spec.tool(call.Name)
	if tool == nil {
		data, _ := json.Marshal(map[string]any{"error": fmt.Sprintf("Unknown tool: %s", call.Name)})
		return string(data)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			data, _ := json.Marshal(map[string]any{"error": fmt.Sprintf("Invalid tool arguments: %v", err)})
			return string(data)
		}
	}

	result := tool.Call(ctx, cc, args)
	data, err := json.Marshal(result)
	if err != nil {
		data, _ = json.Marshal(map[string]any{"error": "Tool result could not be encoded"})
		return string(data)
	}
	return string(data)
}

func newHistoryMessage(session *model.Session, role model.Role, content string) *model.Message {
	return &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		OrganizationID: session.OrganizationID,
		SessionID:      session.ID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}
