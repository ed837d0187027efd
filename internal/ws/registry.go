package ws

import "sync"

const shardCount = 32

// Entry is a registered live connection.
type Entry struct {
	Conn   Conn
	UserID int
}

type shard struct {
	mu            sync.RWMutex
	conversations map[int][]Entry
}

// Registry maps conversation ids to their live connections. Conversations
// are spread over fixed shards so unrelated conversations do not contend on
// a single lock. No method performs I/O while holding a lock.
type Registry struct {
	shards [shardCount]*shard
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{conversations: make(map[int][]Entry)}
	}
	return r
}

func (r *Registry) shardFor(conversationID int) *shard {
	return r.shards[uint(conversationID)%shardCount]
}

// Register appends conn to the conversation. A user may hold several connections.
func (r *Registry) Register(conn Conn, conversationID int, userID int) {
	s := r.shardFor(conversationID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conversationID] = append(s.conversations[conversationID], Entry{Conn: conn, UserID: userID})
}

// Unregister removes conn and reports the user it was bound to. Removing an
// unknown connection is a noop returning ok=false.
func (r *Registry) Unregister(conn Conn, conversationID int) (userID int, ok bool) {
	s := r.shardFor(conversationID)
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.conversations[conversationID]
	for i, e := range entries {
		if e.Conn != conn {
			continue
		}
		remaining := make([]Entry, 0, len(entries)-1)
		remaining = append(remaining, entries[:i]...)
		remaining = append(remaining, entries[i+1:]...)
		if len(remaining) == 0 {
			delete(s.conversations, conversationID)
		} else {
			s.conversations[conversationID] = remaining
		}
		return e.UserID, true
	}
	return 0, false
}

// Connections returns a snapshot of the conversation's entries in
// registration order.
func (r *Registry) Connections(conversationID int) []Entry {
	s := r.shardFor(conversationID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.conversations[conversationID]
	if len(entries) == 0 {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// ConnectionsForUser returns the user's entries in the conversation.
func (r *Registry) ConnectionsForUser(conversationID int, userID int) []Entry {
	var out []Entry
	for _, e := range r.Connections(conversationID) {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// UserIDs returns the distinct users connected to the conversation.
func (r *Registry) UserIDs(conversationID int) map[int]struct{} {
	ids := make(map[int]struct{})
	for _, e := range r.Connections(conversationID) {
		ids[e.UserID] = struct{}{}
	}
	return ids
}

func (r *Registry) IsUserOnline(conversationID int, userID int) bool {
	s := r.shardFor(conversationID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.conversations[conversationID] {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// Conversations lists conversations with at least one connection.
func (r *Registry) Conversations() []int {
	var ids []int
	for _, s := range r.shards {
		s.mu.RLock()
		for id := range s.conversations {
			ids = append(ids, id)
		}
		s.mu.RUnlock()
	}
	return ids
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		for _, entries := range s.conversations {
			n += len(entries)
		}
		s.mu.RUnlock()
	}
	return n
}
