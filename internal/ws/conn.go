package ws

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Application close codes sent during the handshake.
const (
	CloseAuthFailed     = 4001
	CloseNotParticipant = 4003
	CloseInternalError  = 4011
)

const writeWait = 10 * time.Second

var ErrConnClosed = errors.New("websocket connection is closed")

// Conn is the capability set the registry and delivery engine need from a
// live connection. Implementations must allow WriteText and Close to be
// called from any goroutine and ReadText from a single reader goroutine.
type Conn interface {
	ReadText() (string, error)
	WriteText(data []byte) error
	Close(code int, reason string) error
	IsLive() bool
}

// gorillaConn adapts *websocket.Conn. Writes are serialized and bounded by
// writeWait; the first failed read or write marks the connection dead.
type gorillaConn struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	dead      atomic.Bool
	closeOnce sync.Once
}

// NewConn wraps an upgraded gorilla connection.
func NewConn(conn *websocket.Conn) Conn {
	return &gorillaConn{conn: conn}
}

func (c *gorillaConn) ReadText() (string, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		c.dead.Store(true)
		return "", err
	}
	return string(data), nil
}

func (c *gorillaConn) WriteText(data []byte) error {
	if c.dead.Load() {
		return ErrConnClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.dead.Store(true)
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.dead.Store(true)
		return err
	}
	return nil
}

// Close sends a close frame with code (best effort) and releases the socket.
// Only the first call has an effect.
func (c *gorillaConn) Close(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		wasLive := !c.dead.Swap(true)
		if wasLive {
			c.writeMu.Lock()
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
			c.writeMu.Unlock()
		}
		err = c.conn.Close()
	})
	return err
}

func (c *gorillaConn) IsLive() bool {
	return !c.dead.Load()
}
