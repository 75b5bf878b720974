package registry

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/server/internal/events"
)

// recordingConn captures every envelope pushed to it.
type recordingConn struct {
	mu        sync.Mutex
	envelopes []events.Envelope
	failing   bool
}

func (c *recordingConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failing {
		return fmt.Errorf("connection gone")
	}
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	c.envelopes = append(c.envelopes, env)
	return nil
}

func (c *recordingConn) received() []events.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Envelope(nil), c.envelopes...)
}

func TestSendFansOutToAllConnections(t *testing.T) {
	reg := New()
	c1 := &recordingConn{}
	c2 := &recordingConn{}

	reg.Register("alice", "conn-1", c1)
	reg.Register("alice", "conn-2", c2)

	reg.Send("alice", events.EventFriendListUpdated, events.FriendListUpdatedPayload{FriendID: "bob"})

	require.Len(t, c1.received(), 1)
	require.Len(t, c2.received(), 1)
	assert.Equal(t, events.EventFriendListUpdated, c1.received()[0].Type)
	assert.Equal(t, events.EventFriendListUpdated, c2.received()[0].Type)
}

func TestSendToOfflineUserIsNoOp(t *testing.T) {
	reg := New()

	// Must not panic or error for a user with zero connections.
	reg.Send("nobody", events.EventFriendListUpdated, events.FriendListUpdatedPayload{FriendID: "x"})

	assert.False(t, reg.IsOnline("nobody"))
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := New()
	c1 := &recordingConn{}

	reg.Register("alice", "conn-1", c1)
	reg.Register("alice", "conn-1", c1)

	reg.Send("alice", events.EventPendingRequestsUpdated, events.PendingRequestsUpdatedPayload{RequestID: "r"})

	assert.Len(t, c1.received(), 1, "duplicate registration must not duplicate delivery")
	assert.Equal(t, 1, reg.ConnectionCount())
}

func TestUnregisterRemovesOnlyOneConnection(t *testing.T) {
	reg := New()
	c1 := &recordingConn{}
	c2 := &recordingConn{}

	reg.Register("alice", "conn-1", c1)
	reg.Register("alice", "conn-2", c2)
	reg.Unregister("conn-1")

	reg.Send("alice", events.EventFriendListUpdated, events.FriendListUpdatedPayload{FriendID: "bob"})

	assert.Empty(t, c1.received())
	assert.Len(t, c2.received(), 1)
	assert.True(t, reg.IsOnline("alice"))

	reg.Unregister("conn-2")
	assert.False(t, reg.IsOnline("alice"))
}

func TestUnregisterUnknownConnectionIsNoOp(t *testing.T) {
	reg := New()
	reg.Unregister("never-registered")
	assert.Equal(t, 0, reg.ConnectionCount())
}

func TestFailingConnectionDoesNotBlockOthers(t *testing.T) {
	reg := New()
	bad := &recordingConn{failing: true}
	good := &recordingConn{}

	reg.Register("alice", "conn-bad", bad)
	reg.Register("alice", "conn-good", good)

	reg.Send("alice", events.EventFriendListUpdated, events.FriendListUpdatedPayload{FriendID: "bob"})

	assert.Len(t, good.received(), 1)
}

func TestRegisterVisibleToSubsequentSend(t *testing.T) {
	reg := New()

	var wg sync.WaitGroup
	conns := make([]*recordingConn, 50)
	for i := range conns {
		conns[i] = &recordingConn{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.Register("alice", fmt.Sprintf("conn-%d", i), conns[i])
			// A register that happens-before this send must be observed by
			// it for this connection.
			reg.Send("alice", events.EventPendingRequestsUpdated, events.PendingRequestsUpdatedPayload{RequestID: fmt.Sprintf("r-%d", i)})
		}(i)
	}
	wg.Wait()

	for i, c := range conns {
		assert.NotEmptyf(t, c.received(), "connection %d lost its own registration", i)
	}
	assert.Equal(t, 50, reg.ConnectionCount())
}

func TestConcurrentRegisterUnregisterSend(t *testing.T) {
	reg := New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%10)
			connID := fmt.Sprintf("conn-%d", i)
			reg.Register(user, connID, &recordingConn{})
			reg.Send(user, events.EventFriendListUpdated, events.FriendListUpdatedPayload{FriendID: "x"})
			reg.Unregister(connID)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, reg.ConnectionCount())
	assert.Empty(t, reg.OnlineUsers())
}
