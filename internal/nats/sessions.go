package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/chatbased/support-platform/internal/model"
)

// SessionBucket is the name of the KV bucket holding session state.
const SessionBucket = "SESSIONS"

// SessionStore persists sessions in a JetStream key-value bucket, keyed by
// organization and session id.
type SessionStore struct {
	kv jetstream.KeyValue
}

// NewSessionStore ensures the session bucket exists and returns a store
// bound to it.
func NewSessionStore(ctx context.Context, client *Client) (*SessionStore, error) {
	kv, err := client.JetStream().CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      SessionBucket,
		Description: "Conversation session state",
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session bucket: %w", err)
	}
	return &SessionStore{kv: kv}, nil
}

func sessionKey(organizationID, sessionID string) string {
	return fmt.Sprintf("%s.%s", organizationID, sessionID)
}

// Get fetches a session scoped to (organization, session id).
func (s *SessionStore) Get(ctx context.Context, organizationID, sessionID string) (*model.Session, error) {
	entry, err := s.kv.Get(ctx, sessionKey(organizationID, sessionID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, model.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(entry.Value(), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Put stores a session. Last write wins; concurrent creates on the same key
// are not guarded against.
func (s *SessionStore) Put(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if _, err := s.kv.Put(ctx, sessionKey(session.OrganizationID, session.ID), data); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
