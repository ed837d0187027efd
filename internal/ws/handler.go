package ws

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"voicechat-service/internal/auth"
	"voicechat-service/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler accepts websocket connections for conversations.
type Handler struct {
	hub          *Hub
	validator    auth.TokenValidator
	participants ParticipantChecker
	idleTimeout  time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, validator auth.TokenValidator, participants ParticipantChecker, idleTimeout time.Duration) *Handler {
	return &Handler{hub: hub, validator: validator, participants: participants, idleTimeout: idleTimeout}
}

// Handle upgrades the request and serves the connection until it closes.
// Authentication happens after the upgrade so failures can be reported with
// websocket close codes.
func (h *Handler) Handle(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	ctx, span := otel.Tracer("voicechat-service/ws").Start(c.Request.Context(), "ws.handshake")
	span.SetAttributes(attribute.Int("conversation.id", conversationID))
	var endSpan sync.Once
	defer endSpan.Do(func() { span.End() })

	token := c.Query("token")
	if token == "" {
		token, _ = auth.BearerToken(c.GetHeader("Authorization"))
	}

	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		return
	}
	conn := NewConn(raw)

	client := observability.ClientFromRequest(c.Request)
	info := ConnInfo{
		ConnID:         newConnID(),
		ConversationID: conversationID,
		DeviceID:       client.DeviceID,
		IP:             client.IP,
		RequestID:      client.RequestID,
		TraceID:        span.SpanContext().TraceID().String(),
		ConnectedAt:    time.Now(),
	}

	session := NewSession(SessionConfig{
		Conn:           conn,
		ConversationID: conversationID,
		Token:          token,
		Validator:      h.validator,
		Participants:   h.participants,
		Registry:       h.hub.registry,
		Delivery:       h.hub.delivery,
		IdleTimeout:    h.idleTimeout,
		Hooks: SessionHooks{
			Joined: func(userID int) {
				info.UserID = userID
				h.hub.track(conn, info)
				span.SetAttributes(attribute.Int("user.id", userID))
				endSpan.Do(func() { span.End() })

				observability.IncWSActive(wsKind)
				observability.IncWSEvent(wsKind, "ws_connect")
				_ = observability.PublishEvent(ctx, wsRoutingKey, info.envelope("ws_connect", ""), info.headers())
			},
			Left: func(userID int, reason string) {
				h.hub.untrack(conn)
				observability.DecWSActive(wsKind)
				observability.IncWSEvent(wsKind, "ws_disconnect")
				_ = observability.PublishEvent(ctx, wsRoutingKey, info.envelope("ws_disconnect", reason), info.headers())
			},
		},
	})
	session.Run(ctx)

	if code := session.CloseCode(); code != 0 {
		span.SetAttributes(attribute.Int("ws.close_code", code))
		observability.IncWSEvent(wsKind, "ws_rejected")
	}
}
