package model

// ChatRequest is the body of a POST /chat call.
type ChatRequest struct {
	Query          string  `json:"query"`
	OrganizationID string  `json:"organization_id"`
	Reset          bool    `json:"reset"`
	SessionID      *string `json:"session_id"`
}

// ChatResponse is the result of one completed chat turn.
type ChatResponse struct {
	FinalResponse  string   `json:"final_response"`
	ThoughtProcess []string `json:"thought_process"`
	SessionID      string   `json:"session_id"`
	OrganizationID string   `json:"organization_id"`
}

// CreateSessionResponse is the result of an explicit session bootstrap.
type CreateSessionResponse struct {
	SessionID           string `json:"session_id"`
	PocketbaseSessionID string `json:"pocketbase_session_id"`
}
