package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatbased/support-platform/internal/agent"
	"github.com/chatbased/support-platform/internal/model"
	"github.com/chatbased/support-platform/internal/pocketbase"
	"github.com/chatbased/support-platform/pkg/logger"
)

type fakeRecordCreator struct {
	created []map[string]any
	record  *pocketbase.Record
	err     error
}

func (f *fakeRecordCreator) Create(ctx context.Context, collection string, fields map[string]any) (*pocketbase.Record, error) {
	f.created = append(f.created, fields)
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func timeNowFixed() time.Time {
	return time.Date(2024, 5, 14, 15, 4, 5, 0, time.UTC)
}

func newCallContext(organizationID string) *agent.CallContext {
	state := model.NewSessionState(organizationID, timeNowFixed())
	return &agent.CallContext{State: &state}
}

func validArgs() map[string]any {
	return map[string]any{
		"title":          "Login broken",
		"description":    "Cannot log in since yesterday",
		"customer_email": "a@b.com",
		"customer_name":  "A",
	}
}

func TestTicketToolSuccess(t *testing.T) {
	store := &fakeRecordCreator{record: &pocketbase.Record{ID: "t1"}}
	tt := NewTicketTool(store, logger.NewNop())

	result := tt.Call(context.Background(), newCallContext("org1"), validArgs())

	require.Equal(t, "Ticket created successfully", result["success"])
	require.Equal(t, "t1", result["ticket_id"])
	require.Len(t, store.created, 1)

	fields := store.created[0]
	require.Equal(t, "Login broken", fields["title"])
	require.Equal(t, "org1", fields["organizationId"])
	require.Equal(t, "a@b.com", fields["customerEmail"])
	require.Equal(t, []string{}, fields["tags"])
	require.Equal(t, "medium", fields["priority"])

	info, ok := fields["customerInfo"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "A", info["name"])
	require.Equal(t, "a@b.com", info["email"])
}

func TestTicketToolMissingOrganizationContext(t *testing.T) {
	store := &fakeRecordCreator{record: &pocketbase.Record{ID: "t1"}}
	tt := NewTicketTool(store, logger.NewNop())

	result := tt.Call(context.Background(), &agent.CallContext{State: &model.SessionState{}}, validArgs())

	require.Equal(t, "Organization ID is required. Please ask the user to contact human support", result["error"])
	require.Empty(t, store.created)
}

func TestTicketToolValidationOrdering(t *testing.T) {
	store := &fakeRecordCreator{record: &pocketbase.Record{ID: "t1"}}
	tt := NewTicketTool(store, logger.NewNop())

	// Title/description check wins before any email or name check.
	result := tt.Call(context.Background(), newCallContext("org1"), map[string]any{
		"title":       "",
		"description": "",
	})

	require.Equal(t, "Title and description are required", result["error"])
	require.Empty(t, store.created)
}

func TestTicketToolMissingEmail(t *testing.T) {
	store := &fakeRecordCreator{record: &pocketbase.Record{ID: "t1"}}
	tt := NewTicketTool(store, logger.NewNop())

	args := validArgs()
	delete(args, "customer_email")
	result := tt.Call(context.Background(), newCallContext("org1"), args)

	require.Equal(t, "Customer email is required", result["error"])
}

func TestTicketToolMissingName(t *testing.T) {
	store := &fakeRecordCreator{record: &pocketbase.Record{ID: "t1"}}
	tt := NewTicketTool(store, logger.NewNop())

	args := validArgs()
	delete(args, "customer_name")
	result := tt.Call(context.Background(), newCallContext("org1"), args)

	require.Equal(t, "Customer name is required", result["error"])
}

func TestTicketToolNormalizesUnknownPriority(t *testing.T) {
	store := &fakeRecordCreator{record: &pocketbase.Record{ID: "t1"}}
	tt := NewTicketTool(store, logger.NewNop())

	args := validArgs()
	args["priority"] = "critical"
	result := tt.Call(context.Background(), newCallContext("org1"), args)

	require.Contains(t, result, "success")
	require.Equal(t, "medium", store.created[0]["priority"])
}

func TestTicketToolKeepsValidPriorityAndTags(t *testing.T) {
	store := &fakeRecordCreator{record: &pocketbase.Record{ID: "t1"}}
	tt := NewTicketTool(store, logger.NewNop())

	args := validArgs()
	args["priority"] = "urgent"
	args["tags"] = []any{"billing", "login"}
	result := tt.Call(context.Background(), newCallContext("org1"), args)

	require.Contains(t, result, "success")
	require.Equal(t, "urgent", store.created[0]["priority"])
	require.Equal(t, []string{"billing", "login"}, store.created[0]["tags"])
}

func TestTicketToolPersistenceFailure(t *testing.T) {
	store := &fakeRecordCreator{err: errors.New("store unavailable")}
	tt := NewTicketTool(store, logger.NewNop())

	result := tt.Call(context.Background(), newCallContext("org1"), validArgs())

	require.Equal(t, "Failed to create ticket: store unavailable", result["error"])
}

func TestTicketToolNilRecord(t *testing.T) {
	store := &fakeRecordCreator{}
	tt := NewTicketTool(store, logger.NewNop())

	result := tt.Call(context.Background(), newCallContext("org1"), validArgs())

	require.Equal(t, "Failed to create ticket", result["error"])
}

func TestTicketToolNotIdempotent(t *testing.T) {
	store := &fakeRecordCreator{record: &pocketbase.Record{ID: "t1"}}
	tt := NewTicketTool(store, logger.NewNop())

	first := tt.Call(context.Background(), newCallContext("org1"), validArgs())
	second := tt.Call(context.Background(), newCallContext("org1"), validArgs())

	require.Contains(t, first, "success")
	require.Contains(t, second, "success")
	require.Len(t, store.created, 2)
}
