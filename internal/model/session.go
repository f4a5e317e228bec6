// Package model defines data structures for the support platform.
package model

import (
	"time"
)

// SessionState holds the conversational state for one session. The customer
// fields stay nil until the conversation supplies them.
type SessionState struct {
	OrganizationID string         `json:"organization_id"`
	CustomerID     *string        `json:"customer_id"`
	CustomerName   *string        `json:"customer_name"`
	CustomerEmail  *string        `json:"customer_email"`
	CustomerPhone  *string        `json:"customer_phone"`
	Date           string         `json:"date"`
	Time           string         `json:"time"`
	Day            string         `json:"day"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// NewSessionState builds the initial state for a fresh session, snapshotting
// the wall clock as calendar date, 12-hour time and weekday name.
func NewSessionState(organizationID string, now time.Time) SessionState {
	return SessionState{
		OrganizationID: organizationID,
		Date:           now.Format("2006-01-02"),
		Time:           now.Format("03:04:05 PM"),
		Day:            now.Format("Monday"),
	}
}

// Session represents one ongoing conversation for one organization. The
// organization id never changes after creation.
type Session struct {
	ID             string       `json:"session_id"`
	OrganizationID string       `json:"organization_id"`
	State          SessionState `json:"state"`
	CreatedAt      time.Time    `json:"created_at"`
}
