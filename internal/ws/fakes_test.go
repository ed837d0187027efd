package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
)

type fakeConn struct {
	mu         sync.Mutex
	written    []string
	failWrites bool
	panicOn    string
	closed     bool
	closeCode  int
	reads      chan string
	done       chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{reads: make(chan string, 16), done: make(chan struct{})}
}

func (f *fakeConn) ReadText() (string, error) {
	select {
	case text, ok := <-f.reads:
		if !ok {
			return "", io.EOF
		}
		return text, nil
	case <-f.done:
		return "", ErrConnClosed
	}
}

func (f *fakeConn) WriteText(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrConnClosed
	}
	if f.failWrites {
		return errors.New("broken pipe")
	}
	if f.panicOn != "" && string(data) == f.panicOn {
		panic("write exploded")
	}
	f.written = append(f.written, string(data))
	return nil
}

func (f *fakeConn) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.closeCode = code
	close(f.done)
	return nil
}

func (f *fakeConn) IsLive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeConn) setFailWrites(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = v
}

func (f *fakeConn) setPanicOn(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panicOn = text
}

func (f *fakeConn) isClosed() bool {
	return !f.IsLive()
}

func (f *fakeConn) frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.written))
	copy(out, f.written)
	return out
}

func (f *fakeConn) count(text string) int {
	n := 0
	for _, w := range f.frames() {
		if w == text {
			n++
		}
	}
	return n
}

// events decodes the JSON frames of the given type.
func (f *fakeConn) events(eventType string) []map[string]any {
	var out []map[string]any
	for _, w := range f.frames() {
		var m map[string]any
		if json.Unmarshal([]byte(w), &m) != nil {
			continue
		}
		if m["type"] == eventType {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeConn) code() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCode
}

type validatorFunc func(ctx context.Context, token string) (int, error)

func (v validatorFunc) ValidateToken(ctx context.Context, token string) (int, error) {
	return v(ctx, token)
}

type participantsFunc func(ctx context.Context, conversationID int, userID int) (bool, error)

func (p participantsFunc) IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error) {
	return p(ctx, conversationID, userID)
}

// tokenUsers accepts tokens of the form "user-<id>" for ids 1..9.
var tokenUsers = validatorFunc(func(ctx context.Context, token string) (int, error) {
	if len(token) == 6 && token[:5] == "user-" && token[5] >= '1' && token[5] <= '9' {
		return int(token[5] - '0'), nil
	}
	return 0, errors.New("bad token")
})

var everyoneParticipates = participantsFunc(func(ctx context.Context, conversationID int, userID int) (bool, error) {
	return true, nil
})
