package ws

import (
	"time"

	"github.com/google/uuid"

	"voicechat-service/internal/observability"
)

const (
	wsKind       = "conversation"
	wsRoutingKey = "ws_events.conversations"
)

type ConnInfo struct {
	ConnID         string
	ConversationID int
	UserID         int
	DeviceID       string
	IP             string
	RequestID      string
	TraceID        string
	ConnectedAt    time.Time
}

func newConnID() string {
	return uuid.NewString()
}

func (i ConnInfo) envelope(event, reason string) observability.EventEnvelope {
	return observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        wsKind,
				"resource_id": i.ConversationID,
				"event":       event,
				"conn_id":     i.ConnID,
				"duration_ms": time.Since(i.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   i.UserID,
				"device_id": i.DeviceID,
				"ip":        i.IP,
			},
		},
	}
}

func (i ConnInfo) headers() map[string]string {
	return observability.BuildHeaders(i.RequestID, i.TraceID)
}
