package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/chatbased/support-platform/internal/model"
)

const (
	// StreamName is the name of the conversation history stream.
	StreamName = "CHAT"

	// SubjectPrefix is the prefix for all conversation subjects.
	SubjectPrefix = "chat"
)

// History stores conversation messages in a JetStream stream so a continued
// session can replay prior turns into the agent run.
type History struct {
	client *Client
}

// NewHistory creates a history manager.
func NewHistory(client *Client) *History {
	return &History{client: client}
}

// EnsureStream ensures the history stream exists with proper configuration.
func (h *History) EnsureStream(ctx context.Context) error {
	js := h.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Conversation messages per organization and session",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject for one conversation message.
func MessageSubject(organizationID, sessionID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.%s.msg.%s", SubjectPrefix, organizationID, sessionID, role)
}

// Append publishes a message to the conversation history.
func (h *History) Append(ctx context.Context, msg *model.Message) (uint64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	subject := MessageSubject(msg.OrganizationID, msg.SessionID, msg.Role)
	ack, err := h.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}

	return ack.Sequence, nil
}

// Recent fetches up to limit messages for a conversation, oldest first.
func (h *History) Recent(ctx context.Context, organizationID, sessionID string, limit int) ([]model.Message, error) {
	js := h.client.JetStream()

	filterSubject := fmt.Sprintf("%s.%s.%s.msg.>", SubjectPrefix, organizationID, sessionID)
	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	// A pull for more messages than the stream holds blocks until the
	// expiry, so cap the batch at the consumer's pending count.
	batchSize := recentBatchSize(consumer.CachedInfo().NumPending, limit)
	if batchSize == 0 {
		return nil, nil
	}

	batch, err := consumer.Fetch(batchSize, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []model.Message
	for msg := range batch.Messages() {
		var message model.Message
		if err := json.Unmarshal(msg.Data(), &message); err != nil {
			continue
		}
		if meta, err := msg.Metadata(); err == nil {
			message.Sequence = meta.Sequence.Stream
		}
		messages = append(messages, message)
	}
	if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
		return nil, fmt.Errorf("batch error: %w", batch.Error())
	}

	return messages, nil
}

// recentBatchSize returns how many messages to pull for a replay: the
// consumer's pending count bounded by limit, zero when there is nothing
// to replay.
func recentBatchSize(pending uint64, limit int) int {
	if limit <= 0 || pending == 0 {
		return 0
	}
	if pending < uint64(limit) {
		return int(pending)
	}
	return limit
}
