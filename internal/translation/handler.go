package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"voicechat-service/internal/models"
	"voicechat-service/internal/observability"
	"voicechat-service/internal/queue"
	"voicechat-service/internal/repositories"
)

// TaskTypeMessage is the queue task type carrying a message id to translate.
const TaskTypeMessage = "translation:message"

const routingKey = "translation_events"

// Payload is the body of a TaskTypeMessage task.
type Payload struct {
	MessageID int `json:"message_id"`
}

// Handler runs the pipeline for queued messages. It never returns a
// processing error so the queue does not retry a translation.
type Handler struct {
	messages MessageReader
	pipeline *Pipeline
}

var _ queue.Handler = (*Handler)(nil)

func NewHandler(messages MessageReader, pipeline *Pipeline) *Handler {
	return &Handler{messages: messages, pipeline: pipeline}
}

func (h *Handler) ProcessTask(ctx context.Context, t queue.Task) error {
	var p Payload
	if err := json.Unmarshal(t.Payload, &p); err != nil || p.MessageID <= 0 {
		log.Printf("translation: bad payload type=%s err=%v", t.Type, err)
		return nil
	}
	h.Translate(ctx, p.MessageID)
	return nil
}

// Translate loads the message and runs the pipeline, recording the outcome.
func (h *Handler) Translate(ctx context.Context, messageID int) {
	ctx, span := otel.Tracer("voicechat-service/translation").Start(ctx, "translation.run")
	defer span.End()
	span.SetAttributes(attribute.Int("message.id", messageID))

	start := time.Now()
	msg, err := h.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			log.Printf("translation: skipped message_id=%d reason=%v", messageID, err)
			observability.ObserveTranslation("unknown", "skipped", time.Since(start))
			return
		}
		log.Printf("translation: failed message_id=%d err=%v", messageID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.ObserveTranslation("unknown", "failed", time.Since(start))
		return
	}

	kind := string(msg.Kind())
	span.SetAttributes(attribute.String("message.kind", kind), attribute.Int("conversation.id", msg.ConversationID))

	tm, err := h.pipeline.Run(ctx, msg)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		log.Printf("translation: created message_id=%d target=%s kind=%s elapsed=%s", messageID, tm.TargetLanguage, kind, elapsed)
		observability.ObserveTranslation(kind, "created", elapsed)
		h.publish(ctx, "translation_created", msg, tm.TargetLanguage, "")
	case IsSkip(err):
		log.Printf("translation: skipped message_id=%d reason=%v", messageID, err)
		span.SetAttributes(attribute.String("translation.skip", err.Error()))
		observability.ObserveTranslation(kind, "skipped", elapsed)
	default:
		log.Printf("translation: failed message_id=%d err=%v", messageID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.ObserveTranslation(kind, "failed", elapsed)
		h.publish(ctx, "translation_failed", msg, "", err.Error())
	}
}

func (h *Handler) publish(ctx context.Context, name string, msg models.Message, target, reason string) {
	_ = observability.PublishEvent(ctx, routingKey+"."+string(msg.Kind()), observability.EventEnvelope{
		EventType: "translation_events",
		EventName: name,
		Payload: map[string]interface{}{
			"message_id":      msg.ID,
			"conversation_id": msg.ConversationID,
			"target_language": target,
			"reason":          reason,
		},
	}, observability.BuildHeaders("", traceID(ctx)))
}

func traceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Scheduler enqueues translation tasks.
type Scheduler struct {
	client queue.Client
}

func NewScheduler(client queue.Client) *Scheduler {
	return &Scheduler{client: client}
}

// Schedule hands messageID to the background pipeline.
func (s *Scheduler) Schedule(ctx context.Context, messageID int) error {
	payload, err := json.Marshal(Payload{MessageID: messageID})
	if err != nil {
		return err
	}
	if err := s.client.Enqueue(ctx, queue.Task{Type: TaskTypeMessage, Payload: payload}); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			observability.IncQueueRejected()
		}
		return fmt.Errorf("schedule translation message_id=%d: %w", messageID, err)
	}
	return nil
}
