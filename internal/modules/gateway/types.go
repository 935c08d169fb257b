package gateway

import (
	"sync"

	"github.com/chirp-social/core/internal/models"
	"github.com/chirp-social/core/internal/modules/conversation"
	pkgredis "github.com/chirp-social/core/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	redisChanDirectMessage = "chirp:gateway:dm"

	eventReceiveMessage = "receive_message"
	eventError          = "error"
	eventConnected      = "connected"
	eventForceClose     = "force_close"
)

// Conn is the slice of a socket the hub needs: identity, delivery, teardown.
// The socket.io client satisfies it through sioConn; tests plug in fakes.
type Conn interface {
	ID() string
	Emit(event string, payload interface{}) error
	Close()
}

type sioConn struct{ s *socketio.Socket }

func (c sioConn) ID() string { return string(c.s.Id()) }

func (c sioConn) Emit(event string, payload interface{}) error {
	return c.s.Emit(event, payload)
}

func (c sioConn) Close() { c.s.Disconnect(true) }

type clientMeta struct {
	userID string
	conn   Conn
}

// dmEnvelope rides the Redis fan-out channel between instances.
type dmEnvelope struct {
	ReceiverID string              `json:"receiver_id"`
	Message    models.Conversation `json:"message"`
}

// Hub owns the user-to-connection routing table and the cross-instance
// fan-out. Table writes flow through the register/unregister channels and are
// serialized by the Run loop.
type Hub struct {
	table *SessionTable

	register   chan clientMeta
	unregister chan clientMeta

	conv   *conversation.Service
	rc     *pkgredis.Client
	logger *zap.Logger
	sio    *socketio.Server
}

// SessionTable maps a user id to their single live connection.
type SessionTable struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewSessionTable() *SessionTable {
	return &SessionTable{conns: make(map[string]Conn)}
}

// Bind installs conn as the user's connection and returns the one it
// displaced, if any. Last writer wins; the caller decides what to do with the
// loser.
func (t *SessionTable) Bind(userID string, conn Conn) Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.conns[userID]
	t.conns[userID] = conn
	if prev != nil && prev.ID() == conn.ID() {
		return nil
	}
	return prev
}

// Remove drops the mapping only while it still points at connID. A stale
// disconnect arriving after a newer Bind must not evict the newer socket.
func (t *SessionTable) Remove(userID, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.conns[userID]
	if !ok || current.ID() != connID {
		return false
	}
	delete(t.conns, userID)
	return true
}

// Lookup returns the user's live connection.
func (t *SessionTable) Lookup(userID string) (Conn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	conn, ok := t.conns[userID]
	return conn, ok
}

// Count returns the number of connected users.
func (t *SessionTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}
