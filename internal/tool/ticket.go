// Package tool implements the actions registered with the support agent.
package tool

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chatbased/support-platform/internal/agent"
	"github.com/chatbased/support-platform/internal/model"
	"github.com/chatbased/support-platform/internal/pocketbase"
	"github.com/chatbased/support-platform/pkg/logger"
	"github.com/chatbased/support-platform/pkg/metrics"
)

// TicketsCollection is the record store collection holding tickets.
const TicketsCollection = "tickets"

// RecordCreator persists new records to the record store.
type RecordCreator interface {
	Create(ctx context.Context, collection string, fields map[string]any) (*pocketbase.Record, error)
}

// TicketTool creates a support ticket on the customer's behalf. Validation
// failures are returned as {"error": ...} results for the agent to react to
// conversationally; only store faults below the API surface are logged.
type TicketTool struct {
	records RecordCreator
	logger  *logger.Logger
}

// NewTicketTool creates the ticket tool.
func NewTicketTool(records RecordCreator, log *logger.Logger) *TicketTool {
	return &TicketTool{
		records: records,
		logger:  log,
	}
}

// Name implements agent.Tool.
func (t *TicketTool) Name() string {
	return "create_ticket"
}

// Description implements agent.Tool.
func (t *TicketTool) Description() string {
	return "Create a new support ticket in the database. " +
		"Make sure to collect all the information from the user for the description. " +
		"Ask for the customer's email (ensure it is a valid email) and name if not provided."
}

// Parameters implements agent.Tool.
func (t *TicketTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "The title of the ticket",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "The description of the ticket",
			},
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Any appropriate tags of the ticket, limit to 1-3",
			},
			"priority": map[string]any{
				"type":        "string",
				"enum":        []string{"low", "medium", "high", "urgent"},
				"description": "The priority of the ticket",
			},
			"customer_email": map[string]any{
				"type":        "string",
				"description": "The email of the customer, make sure to ask for it if not provided (ensure it is a valid email)",
			},
			"customer_name": map[string]any{
				"type":        "string",
				"description": "The name of the customer, make sure to ask for it if not provided",
			},
			"customer_phone": map[string]any{
				"type":        "string",
				"description": "The phone number of the customer (optional)",
			},
		},
		"required": []string{"title", "description", "customer_email"},
	}
}

// Call implements agent.Tool. Checks run in order; the first failure wins.
func (t *TicketTool) Call(ctx context.Context, cc *agent.CallContext, args map[string]any) map[string]any {
	organizationID := ""
	if cc != nil && cc.State != nil {
		organizationID = cc.State.OrganizationID
	}
	if organizationID == "" {
		metrics.ToolCallsTotal.WithLabelValues(t.Name(), "error").Inc()
		return map[string]any{"error": "Organization ID is required. Please ask the user to contact human support"}
	}

	title := stringArg(args, "title")
	description := stringArg(args, "description")
	if title == "" || description == "" {
		metrics.ToolCallsTotal.WithLabelValues(t.Name(), "error").Inc()
		return map[string]any{"error": "Title and description are required"}
	}

	tags := stringSliceArg(args, "tags")
	if tags == nil {
		tags = []string{}
	}

	priority := model.NormalizePriority(stringArg(args, "priority"))

	customerEmail := stringArg(args, "customer_email")
	if customerEmail == "" {
		metrics.ToolCallsTotal.WithLabelValues(t.Name(), "error").Inc()
		return map[string]any{"error": "Customer email is required"}
	}

	customerName := stringArg(args, "customer_name")
	if customerName == "" {
		metrics.ToolCallsTotal.WithLabelValues(t.Name(), "error").Inc()
		return map[string]any{"error": "Customer name is required"}
	}

	customerPhone := stringArg(args, "customer_phone")

	record, err := t.records.Create(ctx, TicketsCollection, map[string]any{
		"title":         title,
		"description":   description,
		"tags":          tags,
		"priority":      string(priority),
		"customerEmail": customerEmail,
		"customerInfo": map[string]any{
			"name":  customerName,
			"phone": customerPhone,
			"email": customerEmail,
		},
		"organizationId": organizationID,
	})
	if err != nil {
		t.logger.Error("ticket persistence failed",
			zap.String("organization_id", organizationID),
			zap.Error(err),
		)
		metrics.ToolCallsTotal.WithLabelValues(t.Name(), "error").Inc()
		return map[string]any{"error": fmt.Sprintf("Failed to create ticket: %v", err)}
	}
	if record == nil {
		metrics.ToolCallsTotal.WithLabelValues(t.Name(), "error").Inc()
		return map[string]any{"error": "Failed to create ticket"}
	}

	t.logger.Info("ticket created",
		zap.String("ticket_id", record.ID),
		zap.String("organization_id", organizationID),
		zap.String("priority", string(priority)),
	)
	metrics.ToolCallsTotal.WithLabelValues(t.Name(), "success").Inc()
	metrics.TicketsCreatedTotal.WithLabelValues(organizationID).Inc()

	return map[string]any{
		"success":   "Ticket created successfully",
		"ticket_id": record.ID,
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
