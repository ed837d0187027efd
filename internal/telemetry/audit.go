package telemetry

import (
	"context"
	"log"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Audit actions emitted by the write path.
const (
	ActionConversationCreated = "conversation.created"
	ActionConversationDeleted = "conversation.deleted"
	ActionParticipantAdded    = "participant.added"
	ActionParticipantRemoved  = "participant.removed"
	ActionMessageDeleted      = "message.deleted"
	ActionReferenceUploaded   = "reference_audio.uploaded"
	ActionReferenceDeleted    = "reference_audio.deleted"
	ActionUserUpdated         = "user.updated"
)

type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	OccurredAt    string        `json:"occurred_at"`
	Service       string        `json:"service"`
	Environment   string        `json:"environment"`
	RequestID     string        `json:"request_id"`
	UserID        *int          `json:"user_id,omitempty"`
	Action        string        `json:"action"`
	Resource      AuditResource `json:"resource"`
}

type AuditResource struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
}

// Name lets log-only publishers describe the envelope.
func (e AuditEnvelope) Name() string {
	return e.EventType + "/" + e.Action
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes an audit record for action performed by actorID on resource.
// A nil emitter is a noop.
func (e *AuditEmitter) Emit(ctx context.Context, action string, actorID int, resource AuditResource) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     RequestIDFromContext(ctx),
		Action:        action,
		Resource:      resource,
	}
	if actorID != 0 {
		envelope.UserID = &actorID
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed action=%s err=%v", action, err)
	}
}

type requestIDKey struct{}

// WithRequestID stores the request id used to correlate audit records.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
