package model

// Priority is the urgency level of a ticket.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NormalizePriority maps anything outside the fixed enumeration (including
// the empty string) to medium.
func NormalizePriority(p string) Priority {
	switch Priority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(p)
	default:
		return PriorityMedium
	}
}

// CustomerInfo is the contact block nested inside a ticket record.
type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email"`
}

// Ticket is a support request raised on behalf of a customer. The
// organization id is inherited from the active session, never supplied by
// the caller.
type Ticket struct {
	ID             string       `json:"id,omitempty"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Tags           []string     `json:"tags"`
	Priority       Priority     `json:"priority"`
	CustomerEmail  string       `json:"customerEmail"`
	CustomerInfo   CustomerInfo `json:"customerInfo"`
	OrganizationID string       `json:"organizationId"`
}
