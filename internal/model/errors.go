package model

import (
	"errors"
)

var (
	// ErrSessionNotFound indicates a session id that does not resolve to a
	// live session for the organization. Callers treat it as a signal to
	// start fresh, never as a user-facing error.
	ErrSessionNotFound = errors.New("session not found")

	// ErrOrganizationNotFound indicates the tenant record does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")
)
