package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/models"
)

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// AuditPublisher publishes security-relevant events. A nil writer disables
// publishing; event delivery is best-effort and never fails the request.
type AuditPublisher struct {
	writer KafkaWriter
}

// NewAuditPublisher creates an AuditPublisher. writer may be nil.
func NewAuditPublisher(writer KafkaWriter) *AuditPublisher {
	return &AuditPublisher{writer: writer}
}

// Publish emits one audit event.
func (p *AuditPublisher) Publish(ctx context.Context, kind string, userID int64, email, detail string) {
	if p == nil || p.writer == nil {
		return
	}

	event := models.AuditEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Email:     email,
		Detail:    detail,
		Timestamp: time.Now().Unix(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("failed to marshal audit event", "kind", kind, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.EventID),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish audit event", "kind", kind, "error", err)
		return
	}

	logger.Log.Infow("audit event published", "kind", kind, "user_id", userID)
}
