package ws

import (
	"context"
	"log"
	"sync"

	"voicechat-service/internal/models"
	"voicechat-service/internal/observability"
)

// Hub owns the registry and delivery engine and exposes the hooks the write
// path and translation pipeline call after persisting changes.
type Hub struct {
	registry *Registry
	delivery *Delivery

	mu    sync.RWMutex
	infos map[Conn]ConnInfo
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	h := &Hub{
		registry: NewRegistry(),
		infos:    make(map[Conn]ConnInfo),
	}
	h.delivery = NewDelivery(h.registry, h.publishEviction)
	return h
}

func (h *Hub) Registry() *Registry { return h.registry }

func (h *Hub) Delivery() *Delivery { return h.delivery }

// MessageCreated pushes new_message to every connection, sender included.
func (h *Hub) MessageCreated(ctx context.Context, msg models.Message) {
	n := h.delivery.SendAll(ctx, models.NewMessageEvent(msg), msg.ConversationID)
	observability.IncWSEvent(wsKind, models.EventNewMessage)
	log.Printf("ws: new_message delivered conversation_id=%d message_id=%d connections=%d", msg.ConversationID, msg.ID, n)
}

// MessageDeleted pushes message_deleted to the conversation.
func (h *Hub) MessageDeleted(ctx context.Context, conversationID int, messageID int) {
	h.delivery.SendAll(ctx, models.MessageDeletedEvent(conversationID, messageID), conversationID)
	observability.IncWSEvent(wsKind, models.EventMessageDeleted)
}

// TranslationCreated pushes message_translated to the conversation.
func (h *Hub) TranslationCreated(ctx context.Context, conversationID int, tm models.TranslatedMessage) {
	h.delivery.SendAll(ctx, models.MessageTranslatedEvent(conversationID, tm), conversationID)
	observability.IncWSEvent(wsKind, models.EventMessageTranslated)
}

// ParticipantRemoved force-closes the removed user's connections. Their
// sessions then unregister and announce user_left.
func (h *Hub) ParticipantRemoved(ctx context.Context, conversationID int, userID int) {
	for _, e := range h.registry.ConnectionsForUser(conversationID, userID) {
		_ = e.Conn.Close(CloseNotParticipant, "removed from conversation")
	}
}

// ConversationDeleted force-closes every connection of the conversation.
func (h *Hub) ConversationDeleted(ctx context.Context, conversationID int) {
	for _, e := range h.registry.Connections(conversationID) {
		_ = e.Conn.Close(CloseNotParticipant, "conversation deleted")
	}
}

// IsUserOnline reports whether userID has a live connection to the conversation.
func (h *Hub) IsUserOnline(conversationID int, userID int) bool {
	return h.registry.IsUserOnline(conversationID, userID)
}

// Sweep evicts dead connections the delivery path has not noticed yet.
func (h *Hub) Sweep(ctx context.Context) int {
	n := h.delivery.Sweep(ctx)
	if n > 0 {
		log.Printf("ws: sweep evicted=%d active=%d", n, h.registry.Count())
	}
	return n
}

func (h *Hub) track(conn Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.infos[conn] = info
}

func (h *Hub) untrack(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.infos, conn)
}

func (h *Hub) connInfo(conn Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	info, ok := h.infos[conn]
	return info, ok
}

func (h *Hub) publishEviction(ctx context.Context, conversationID int, e Entry, err error) {
	info, ok := h.connInfo(e.Conn)
	if !ok {
		return
	}
	_ = observability.PublishEvent(ctx, wsRoutingKey, info.envelope("ws_error", err.Error()), info.headers())
	observability.IncWSEvent(wsKind, "ws_error")
}
