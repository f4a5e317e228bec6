// Package service provides business logic for the support platform.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatbased/support-platform/internal/model"
	"github.com/chatbased/support-platform/internal/pocketbase"
	"github.com/chatbased/support-platform/pkg/logger"
	"github.com/chatbased/support-platform/pkg/metrics"
)

// SessionsCollection is the record store collection holding session index
// entries.
const SessionsCollection = "chat_sessions"

// SessionStore persists session state.
type SessionStore interface {
	Get(ctx context.Context, organizationID, sessionID string) (*model.Session, error)
	Put(ctx context.Context, session *model.Session) error
}

// RecordStore is the generic create/get-one record store access the core
// uses.
type RecordStore interface {
	Create(ctx context.Context, collection string, fields map[string]any) (*pocketbase.Record, error)
	GetOne(ctx context.Context, collection, id string) (*pocketbase.Record, error)
}

// SessionManager resolves an inbound (organization, session id) pair to a
// live session, creating a fresh one with deterministic initial state when
// needed.
type SessionManager struct {
	sessions SessionStore
	records  RecordStore
	logger   *logger.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewSessionManager creates a session manager.
func NewSessionManager(sessions SessionStore, records RecordStore, log *logger.Logger) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		records:  records,
		logger:   log,
		now:      time.Now,
	}
}

// ResolveOrCreate returns the live session for (organizationID, sessionID),
// or creates a new one when sessionID is empty, reset is requested, or the
// referenced session cannot be found. A stale session id is downgraded to a
// fresh session, never surfaced as an error.
func (m *SessionManager) ResolveOrCreate(ctx context.Context, organizationID, sessionID string, reset bool) (*model.Session, error) {
	if sessionID != "" && !reset {
		session, err := m.sessions.Get(ctx, organizationID, sessionID)
		if err == nil {
			m.logger.Debug("session found",
				zap.String("organization_id", organizationID),
				zap.String("session_id", sessionID),
			)
			return session, nil
		}
		if !errors.Is(err, model.ErrSessionNotFound) {
			return nil, err
		}
		m.logger.Info("session not found, creating new session",
			zap.String("organization_id", organizationID),
			zap.String("session_id", sessionID),
		)
	}

	session, _, err := m.Create(ctx, organizationID)
	return session, err
}

// Create bootstraps a new session with deterministic initial state and
// persists its index entry to the record store. The second return value is
// the index entry's record id.
func (m *SessionManager) Create(ctx context.Context, organizationID string) (*model.Session, string, error) {
	now := m.now()

	session := &model.Session{
		ID:             uuid.Must(uuid.NewV7()).String(),
		OrganizationID: organizationID,
		State:          model.NewSessionState(organizationID, now),
		CreatedAt:      now,
	}

	if err := m.sessions.Put(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	index, err := m.records.Create(ctx, SessionsCollection, map[string]any{
		"sessionId":      session.ID,
		"organizationId": organizationID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to record session index entry: %w", err)
	}

	m.logger.Info("session created",
		zap.String("organization_id", organizationID),
		zap.String("session_id", session.ID),
	)
	metrics.SessionsCreatedTotal.WithLabelValues(organizationID).Inc()

	return session, index.ID, nil
}
