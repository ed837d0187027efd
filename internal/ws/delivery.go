package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"

	"voicechat-service/internal/observability"
)

// NoExclusion broadcasts to every connection of a conversation.
const NoExclusion = 0

// EvictFunc observes connections removed after a failed or dead write.
type EvictFunc func(ctx context.Context, conversationID int, e Entry, err error)

// Delivery pushes events to live connections. Delivery is best effort and
// at most once: a connection that cannot be written to is unregistered and
// closed, and the frame is not retried.
type Delivery struct {
	registry *Registry
	onEvict  EvictFunc
}

func NewDelivery(registry *Registry, onEvict EvictFunc) *Delivery {
	return &Delivery{registry: registry, onEvict: onEvict}
}

// Broadcast sends event to every connection of the conversation except those
// bound to excludeUserID and returns the number of successful writes.
func (d *Delivery) Broadcast(ctx context.Context, event any, conversationID int, excludeUserID int) int {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal event conversation_id=%d err=%v", conversationID, err)
		return 0
	}

	var (
		delivered int
		failed    []Entry
		reasons   []error
	)
	for _, e := range d.registry.Connections(conversationID) {
		if excludeUserID != NoExclusion && e.UserID == excludeUserID {
			continue
		}
		if err := d.write(e.Conn, payload); err != nil {
			failed = append(failed, e)
			reasons = append(reasons, err)
			continue
		}
		delivered++
	}

	for i, e := range failed {
		d.evict(ctx, conversationID, e, reasons[i])
	}
	return delivered
}

// SendAll sends event to every connection of the conversation, including the
// originator's own devices.
func (d *Delivery) SendAll(ctx context.Context, event any, conversationID int) int {
	return d.Broadcast(ctx, event, conversationID, NoExclusion)
}

// SendDirect sends event to a single connection.
func (d *Delivery) SendDirect(ctx context.Context, event any, conn Conn, conversationID int) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return d.sendOne(ctx, conn, conversationID, payload)
}

// SendText sends a raw text frame such as "ping" or "pong".
func (d *Delivery) SendText(ctx context.Context, conn Conn, conversationID int, text string) error {
	return d.sendOne(ctx, conn, conversationID, []byte(text))
}

// Sweep evicts every registered connection that is no longer live.
func (d *Delivery) Sweep(ctx context.Context) int {
	evicted := 0
	for _, conversationID := range d.registry.Conversations() {
		for _, e := range d.registry.Connections(conversationID) {
			if e.Conn.IsLive() {
				continue
			}
			d.evict(ctx, conversationID, e, ErrConnClosed)
			evicted++
		}
	}
	return evicted
}

func (d *Delivery) sendOne(ctx context.Context, conn Conn, conversationID int, payload []byte) error {
	if err := d.write(conn, payload); err != nil {
		userID, _ := d.userOf(conn, conversationID)
		d.evict(ctx, conversationID, Entry{Conn: conn, UserID: userID}, err)
		return err
	}
	return nil
}

func (d *Delivery) write(conn Conn, payload []byte) error {
	if !conn.IsLive() {
		observability.IncWSDelivery("dead")
		return ErrConnClosed
	}
	if err := conn.WriteText(payload); err != nil {
		observability.IncWSDelivery("failed")
		return err
	}
	observability.IncWSDelivery("ok")
	return nil
}

func (d *Delivery) userOf(conn Conn, conversationID int) (int, bool) {
	for _, e := range d.registry.Connections(conversationID) {
		if e.Conn == conn {
			return e.UserID, true
		}
	}
	return 0, false
}

func (d *Delivery) evict(ctx context.Context, conversationID int, e Entry, cause error) {
	_, registered := d.registry.Unregister(e.Conn, conversationID)
	_ = e.Conn.Close(websocket.CloseGoingAway, "delivery failed")
	if !registered {
		return
	}
	log.Printf("ws: evicted connection conversation_id=%d user_id=%d err=%v", conversationID, e.UserID, cause)
	observability.IncWSEvent("conversation", "ws_evicted")
	if d.onEvict != nil {
		d.onEvict(ctx, conversationID, e, cause)
	}
}
