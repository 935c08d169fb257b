package gateway

import (
	"sync"
	"testing"

	"github.com/chirp-social/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	events []string
	closed bool
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Emit(event string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func TestBindLastWriterWins(t *testing.T) {
	table := NewSessionTable()
	first := &fakeConn{id: "s1"}
	second := &fakeConn{id: "s2"}

	assert.Nil(t, table.Bind("u1", first))

	displaced := table.Bind("u1", second)
	require.NotNil(t, displaced)
	assert.Equal(t, "s1", displaced.ID())

	conn, ok := table.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "s2", conn.ID())
	assert.Equal(t, 1, table.Count())
}

func TestBindSameConnDisplacesNothing(t *testing.T) {
	table := NewSessionTable()
	conn := &fakeConn{id: "s1"}

	table.Bind("u1", conn)
	assert.Nil(t, table.Bind("u1", conn))
}

func TestRemoveIgnoresStaleDisconnect(t *testing.T) {
	table := NewSessionTable()
	old := &fakeConn{id: "s1"}
	current := &fakeConn{id: "s2"}

	table.Bind("u1", old)
	table.Bind("u1", current)

	// The old socket's disconnect fires after the new one connected; the
	// routing entry must survive it.
	assert.False(t, table.Remove("u1", "s1"))
	conn, ok := table.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "s2", conn.ID())

	assert.True(t, table.Remove("u1", "s2"))
	_, ok = table.Lookup("u1")
	assert.False(t, ok)
	assert.Zero(t, table.Count())
}

func TestRemoveUnknownUser(t *testing.T) {
	table := NewSessionTable()
	assert.False(t, table.Remove("nobody", "s1"))
}

func TestDeliverLocal(t *testing.T) {
	h := &Hub{table: NewSessionTable(), logger: zap.NewNop()}
	conn := &fakeConn{id: "s1"}
	h.table.Bind("u1", conn)

	assert.True(t, h.DeliverLocal("u1", &models.Conversation{Content: "hi"}))
	assert.Equal(t, []string{eventReceiveMessage}, conn.events)

	assert.False(t, h.DeliverLocal("offline-user", &models.Conversation{Content: "hi"}))
}
