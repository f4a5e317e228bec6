package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatbased/support-platform/internal/llm"
	"github.com/chatbased/support-platform/internal/model"
	"github.com/chatbased/support-platform/pkg/logger"
)

type scriptedLLM struct {
	responses []*llm.CompletionResponse
	requests  []*llm.CompletionRequest
}

func (s *scriptedLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *scriptedLLM) Name() string     { return "scripted" }
func (s *scriptedLLM) Models() []string { return nil }

type memoryHistory struct {
	messages []model.Message
}

func (m *memoryHistory) Append(ctx context.Context, msg *model.Message) (uint64, error) {
	m.messages = append(m.messages, *msg)
	return uint64(len(m.messages)), nil
}

func (m *memoryHistory) Recent(ctx context.Context, organizationID, sessionID string, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range m.messages {
		if msg.OrganizationID == organizationID && msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type echoTool struct {
	calls  []map[string]any
	orgIDs []string
	result map[string]any
}

func (e *echoTool) Name() string               { return "create_ticket" }
func (e *echoTool) Description() string        { return "creates a ticket" }
func (e *echoTool) Parameters() map[string]any { return map[string]any{"type": "object"} }

func (e *echoTool) Call(ctx context.Context, cc *CallContext, args map[string]any) map[string]any {
	e.calls = append(e.calls, args)
	e.orgIDs = append(e.orgIDs, cc.State.OrganizationID)
	return e.result
}

func newTestSession() *model.Session {
	now := time.Date(2024, 5, 14, 15, 4, 5, 0, time.UTC)
	return &model.Session{
		ID:             "s1",
		OrganizationID: "org1",
		State:          model.NewSessionState("org1", now),
		CreatedAt:      now,
	}
}

func TestRunPlainAnswer(t *testing.T) {
	backend := &scriptedLLM{responses: []*llm.CompletionResponse{
		{Content: "Hello, how can I help?"},
	}}
	history := &memoryHistory{}
	runner := NewRunner(backend, history, 8, 50, logger.NewNop())

	events, err := runner.Run(context.Background(), &Spec{Model: "gpt-4o"}, newTestSession(), "hi")
	require.NoError(t, err)

	require.Equal(t, []Event{EventFinal{Text: "Hello, how can I help?"}}, events)

	// User and assistant messages are both recorded.
	require.Len(t, history.messages, 2)
	require.Equal(t, model.RoleUser, history.messages[0].Role)
	require.Equal(t, "hi", history.messages[0].Content)
	require.Equal(t, model.RoleAssistant, history.messages[1].Role)
}

func TestRunToolCallLoop(t *testing.T) {
	backend := &scriptedLLM{responses: []*llm.CompletionResponse{
		{
			Content: "Raising a ticket now.",
			ToolCalls: []llm.ToolCall{
				{ID: "call1", Name: "create_ticket", Arguments: `{"title":"Login broken"}`},
			},
		},
		{Content: "Done, your ticket is in."},
	}}
	history := &memoryHistory{}
	ticket := &echoTool{result: map[string]any{"success": "Ticket created successfully", "ticket_id": "t1"}}
	runner := NewRunner(backend, history, 8, 50, logger.NewNop())

	events, err := runner.Run(context.Background(), &Spec{
		Model: "gpt-4o",
		Tools: []Tool{ticket},
	}, newTestSession(), "my login is broken")
	require.NoError(t, err)

	require.Equal(t, []Event{
		EventThought{Text: "Raising a ticket now."},
		EventAction{Name: "create_ticket", Args: `{"title":"Login broken"}`},
		EventFinal{Text: "Done, your ticket is in."},
	}, events)

	// The tool saw the parsed arguments and the session's organization.
	require.Len(t, ticket.calls, 1)
	require.Equal(t, "Login broken", ticket.calls[0]["title"])
	require.Equal(t, []string{"org1"}, ticket.orgIDs)

	// The second request carried the tool result back to the model.
	require.Len(t, backend.requests, 2)
	last := backend.requests[1].Messages
	require.Equal(t, llm.RoleTool, last[len(last)-1].Role)
	require.Equal(t, "call1", last[len(last)-1].ToolCallID)
	require.Contains(t, last[len(last)-1].Content, "Ticket created successfully")
}

func TestRunUnknownTool(t *testing.T) {
	backend := &scriptedLLM{responses: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{{ID: "call1", Name: "delete_everything", Arguments: `{}`}}},
		{Content: "Sorry, I can't do that."},
	}}
	runner := NewRunner(backend, &memoryHistory{}, 8, 50, logger.NewNop())

	events, err := runner.Run(context.Background(), &Spec{Model: "gpt-4o"}, newTestSession(), "do something")
	require.NoError(t, err)

	require.Equal(t, EventFinal{Text: "Sorry, I can't do that."}, events[len(events)-1])

	last := backend.requests[1].Messages
	require.Contains(t, last[len(last)-1].Content, "Unknown tool")
}

func TestRunMaxTurnsExhausted(t *testing.T) {
	// The model keeps asking for tools and never produces a final answer.
	backend := &scriptedLLM{responses: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "create_ticket", Arguments: `{}`}}},
		{ToolCalls: []llm.ToolCall{{ID: "c2", Name: "create_ticket", Arguments: `{}`}}},
	}}
	ticket := &echoTool{result: map[string]any{"error": "Title and description are required"}}
	runner := NewRunner(backend, &memoryHistory{}, 2, 50, logger.NewNop())

	events, err := runner.Run(context.Background(), &Spec{
		Model: "gpt-4o",
		Tools: []Tool{ticket},
	}, newTestSession(), "ticket please")
	require.NoError(t, err)

	for _, ev := range events {
		_, isFinal := ev.(EventFinal)
		require.False(t, isFinal, "exhausted run must not emit a final event")
	}
}

func TestRunReplaysHistory(t *testing.T) {
	history := &memoryHistory{}
	session := newTestSession()
	history.Append(context.Background(), &model.Message{
		OrganizationID: "org1", SessionID: "s1",
		Role: model.RoleUser, Content: "earlier question",
	})
	history.Append(context.Background(), &model.Message{
		OrganizationID: "org1", SessionID: "s1",
		Role: model.RoleAssistant, Content: "earlier answer",
	})

	backend := &scriptedLLM{responses: []*llm.CompletionResponse{{Content: "ok"}}}
	runner := NewRunner(backend, history, 8, 50, logger.NewNop())

	_, err := runner.Run(context.Background(), &Spec{Model: "gpt-4o"}, session, "follow-up")
	require.NoError(t, err)

	msgs := backend.requests[0].Messages
	require.Len(t, msgs, 3)
	require.Equal(t, "earlier question", msgs[0].Content)
	require.Equal(t, "earlier answer", msgs[1].Content)
	require.Equal(t, "follow-up", msgs[2].Content)
}

func TestRunLLMFailure(t *testing.T) {
	backend := &scriptedLLM{}
	runner := NewRunner(backend, &memoryHistory{}, 8, 50, logger.NewNop())

	_, err := runner.Run(context.Background(), &Spec{Model: "gpt-4o"}, newTestSession(), "hi")
	require.Error(t, err)
}
