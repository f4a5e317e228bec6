package agent

import (
	"context"

	"github.com/chatbased/support-platform/internal/model"
)

// CallContext exposes the active session's state to a tool invocation.
type CallContext struct {
	State *model.SessionState
}

// Tool is a callable action the model may invoke during a run. Call returns
// a structured result map; failures travel as {"error": ...} values that the
// agent interprets conversationally, never as Go errors.
type Tool interface {
	Name() string
	Description() string

	// Parameters returns a JSON schema object describing the arguments.
	Parameters() map[string]any

	Call(ctx context.Context, cc *CallContext, args map[string]any) map[string]any
}

// Spec binds an agent identity to its instruction, model and tools.
type Spec struct {
	Name        string
	Description string
	Model       string
	Instruction string
	Tools       []Tool
}

func (s *Spec) tool(name string) Tool {
	for _, t := range s.Tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}
