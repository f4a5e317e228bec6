package model

// Organization is a tenant of the platform. Read-only to this service; the
// two instruction fragments are used verbatim when composing the agent's
// behavior for the tenant.
type Organization struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	SystemInstruction     string `json:"system_instruction"`
	AdditionalInstruction string `json:"additional_instruction"`
}
