package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voicechat-service/internal/auth"
	"voicechat-service/internal/models"
)

// DefaultIdleTimeout is how long a session waits for a frame before probing
// the client with "ping".
const DefaultIdleTimeout = 60 * time.Second

// State is a connection lifecycle state.
type State int32

const (
	StateHandshaking State = iota
	StateAuthenticating
	StateAuthorizing
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthorizing:
		return "authorizing"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ParticipantChecker decides whether a user may join a conversation.
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error)
}

// SessionHooks observe lifecycle transitions. Both are optional.
type SessionHooks struct {
	Joined func(userID int)
	Left   func(userID int, reason string)
}

// SessionConfig wires a Session.
type SessionConfig struct {
	Conn           Conn
	ConversationID int
	Token          string
	Validator      auth.TokenValidator
	Participants   ParticipantChecker
	Registry       *Registry
	Delivery       *Delivery
	IdleTimeout    time.Duration
	Hooks          SessionHooks
}

// Session drives one accepted connection from authentication to close.
type Session struct {
	cfg         SessionConfig
	state       atomic.Int32
	userID      int
	closeCode   int
	closeReason string
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Session{cfg: cfg}
}

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// UserID is the authenticated user, or 0 before authentication succeeds.
func (s *Session) UserID() int { return s.userID }

// CloseCode is the application close code sent during the handshake, or 0.
func (s *Session) CloseCode() int { return s.closeCode }

// CloseReason describes why the session ended.
func (s *Session) CloseReason() string { return s.closeReason }

// Run authenticates, authorizes and serves the connection until it closes.
// It must be called once, after the transport handshake completed.
func (s *Session) Run(ctx context.Context) {
	s.setState(StateAuthenticating)
	userID, err := s.cfg.Validator.ValidateToken(ctx, s.cfg.Token)
	if err != nil {
		log.Printf("ws: authentication failed conversation_id=%d err=%v", s.cfg.ConversationID, err)
		s.reject(CloseAuthFailed, "authentication failed")
		return
	}
	s.userID = userID

	s.setState(StateAuthorizing)
	ok, err := s.cfg.Participants.IsParticipant(ctx, s.cfg.ConversationID, userID)
	if err != nil {
		log.Printf("ws: access check failed conversation_id=%d user_id=%d err=%v", s.cfg.ConversationID, userID, err)
		s.reject(CloseInternalError, "access check failed")
		return
	}
	if !ok {
		s.reject(CloseNotParticipant, "not a participant")
		return
	}

	s.setState(StateActive)
	s.cfg.Registry.Register(s.cfg.Conn, s.cfg.ConversationID, userID)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ws: session panicked conversation_id=%d user_id=%d panic=%v\n%s", s.cfg.ConversationID, userID, r, debug.Stack())
			s.closeReason = fmt.Sprintf("internal error: %v", r)
		}
		s.finish(context.WithoutCancel(ctx))
	}()
	log.Printf("ws: user joined conversation_id=%d user_id=%d", s.cfg.ConversationID, userID)
	if s.cfg.Hooks.Joined != nil {
		s.cfg.Hooks.Joined(userID)
	}
	s.cfg.Delivery.Broadcast(ctx, models.UserJoinedEvent(s.cfg.ConversationID, userID), s.cfg.ConversationID, userID)

	s.closeReason = s.serve(ctx)
}

func (s *Session) reject(code int, reason string) {
	s.setState(StateClosing)
	s.closeCode = code
	s.closeReason = reason
	_ = s.cfg.Conn.Close(code, reason)
	s.setState(StateClosed)
}

type inbound struct {
	text string
	err  error
}

// serve processes frames in order until the connection ends and returns the reason.
func (s *Session) serve(ctx context.Context) string {
	frames := make(chan inbound)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			text, err := s.cfg.Conn.ReadText()
			select {
			case frames <- inbound{text: text, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	idle := time.NewTimer(s.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return "server shutting down"
		case f := <-frames:
			if f.err != nil {
				return readCloseReason(f.err)
			}
			if err := s.handle(ctx, f.text); err != nil {
				return "write failed: " + err.Error()
			}
			resetTimer(idle, s.cfg.IdleTimeout)
		case <-idle.C:
			if err := s.cfg.Delivery.SendText(ctx, s.cfg.Conn, s.cfg.ConversationID, "ping"); err != nil {
				log.Printf("ws: idle probe failed conversation_id=%d user_id=%d err=%v", s.cfg.ConversationID, s.userID, err)
				return "idle probe failed"
			}
			idle.Reset(s.cfg.IdleTimeout)
		}
	}
}

type clientFrame struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"is_typing"`
}

func (s *Session) handle(ctx context.Context, text string) error {
	if text == "ping" {
		return s.cfg.Delivery.SendText(ctx, s.cfg.Conn, s.cfg.ConversationID, "pong")
	}
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return nil
	}

	var frame clientFrame
	if err := json.Unmarshal([]byte(text), &frame); err != nil {
		log.Printf("ws: dropped malformed frame conversation_id=%d user_id=%d err=%v", s.cfg.ConversationID, s.userID, err)
		return nil
	}
	if frame.Type == models.EventTyping {
		s.cfg.Delivery.Broadcast(ctx, models.TypingEvent(s.userID, frame.IsTyping), s.cfg.ConversationID, s.userID)
	}
	return nil
}

func (s *Session) finish(ctx context.Context) {
	s.setState(StateClosing)
	s.cfg.Registry.Unregister(s.cfg.Conn, s.cfg.ConversationID)
	_ = s.cfg.Conn.Close(websocket.CloseNormalClosure, "")
	s.cfg.Delivery.SendAll(ctx, models.UserLeftEvent(s.cfg.ConversationID, s.userID), s.cfg.ConversationID)
	log.Printf("ws: user left conversation_id=%d user_id=%d reason=%q", s.cfg.ConversationID, s.userID, s.closeReason)
	if s.cfg.Hooks.Left != nil {
		s.cfg.Hooks.Left(s.userID, s.closeReason)
	}
	s.setState(StateClosed)
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func readCloseReason(err error) string {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return "client closed"
	}
	return err.Error()
}
