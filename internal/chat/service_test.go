package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/server/internal/dispatch"
	"chatterbox/server/internal/events"
	"chatterbox/server/internal/models"
	"chatterbox/server/internal/registry"
	"chatterbox/server/internal/store"
)

// nopEvents discards notifications for tests that only exercise persistence.
type nopEvents struct{}

func (nopEvents) MessageReceived(msg models.Message) {}

func (nopEvents) MessageDeleted(messageID, deleterID, partnerID string) {}

// recordingConn captures envelopes pushed through the registry.
type recordingConn struct {
	mu        sync.Mutex
	envelopes []events.Envelope
}

func (c *recordingConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	c.envelopes = append(c.envelopes, env)
	return nil
}

func (c *recordingConn) ofType(t events.Type) []events.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []events.Envelope
	for _, env := range c.envelopes {
		if env.Type == t {
			out = append(out, env)
		}
	}
	return out
}

func payloadField(t *testing.T, env events.Envelope, key string) string {
	t.Helper()
	m, ok := env.Payload.(map[string]interface{})
	require.True(t, ok, "payload should decode as an object")
	v, _ := m[key].(string)
	return v
}

func seedUser(t *testing.T, users *store.MemoryUsers, name string) string {
	t.Helper()
	u := models.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), &u))
	return u.ID
}

func newPersistenceService(t *testing.T) (*Service, *store.MemoryUsers, *store.MemoryMessages) {
	t.Helper()
	users := store.NewMemoryUsers()
	messages := store.NewMemoryMessages()
	return NewService(users, messages, nopEvents{}), users, messages
}

func TestSendEmptyContentFails(t *testing.T) {
	svc, users, _ := newPersistenceService(t)
	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	_, err := svc.Send(context.Background(), alice, bob, "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = svc.Send(context.Background(), alice, bob, "")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestSendUnknownUserFails(t *testing.T) {
	svc, users, _ := newPersistenceService(t)
	alice := seedUser(t, users, "alice")

	_, err := svc.Send(context.Background(), alice, "missing", "hi")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Send(context.Background(), "missing", alice, "hi")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSendEmbedsNamesAndTrimsContent(t *testing.T) {
	svc, users, _ := newPersistenceService(t)
	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	msg, err := svc.Send(context.Background(), alice, bob, "  hello  ")
	require.NoError(t, err)

	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "alice", msg.Sender.Name)
	assert.Equal(t, "bob", msg.Receiver.Name)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestDeleteRequiresSender(t *testing.T) {
	svc, users, _ := newPersistenceService(t)
	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	msg, err := svc.Send(context.Background(), alice, bob, "mine")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), bob, msg.ID), ErrForbidden)

	// The message survives the forbidden attempt.
	history, err := svc.History(context.Background(), alice, bob)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)

	require.NoError(t, svc.Delete(context.Background(), alice, msg.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), alice, msg.ID), ErrMessageNotFound)
}

func TestHistoryOrderingIsStable(t *testing.T) {
	svc, users, _ := newPersistenceService(t)
	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	for i := 0; i < 10; i++ {
		from, to := alice, bob
		if i%2 == 1 {
			from, to = bob, alice
		}
		_, err := svc.Send(context.Background(), from, to, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	first, err := svc.History(context.Background(), alice, bob)
	require.NoError(t, err)
	require.Len(t, first, 10)

	for i := 0; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), first[i].Content)
	}
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].Timestamp.Before(first[i-1].Timestamp))
	}

	// Idempotent read: the same call returns the same ordering.
	second, err := svc.History(context.Background(), bob, alice)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHistoryEmptyConversation(t *testing.T) {
	svc, users, _ := newPersistenceService(t)
	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	history, err := svc.History(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

// TestSendAndDeleteFanOut walks the full scenario: alice holds two live
// connections, bob one; a sent message reaches all three exactly once with
// the same id, the deletion reaches all three, and history ends up empty.
func TestSendAndDeleteFanOut(t *testing.T) {
	users := store.NewMemoryUsers()
	messages := store.NewMemoryMessages()
	reg := registry.New()
	svc := NewService(users, messages, dispatch.New(reg))

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	c1 := &recordingConn{}
	c2 := &recordingConn{}
	c3 := &recordingConn{}
	reg.Register(alice, "c1", c1)
	reg.Register(alice, "c2", c2)
	reg.Register(bob, "c3", c3)

	msg, err := svc.Send(context.Background(), alice, bob, "hi")
	require.NoError(t, err)

	for _, conn := range []*recordingConn{c1, c2, c3} {
		got := conn.ofType(events.EventReceiveMessage)
		require.Len(t, got, 1, "each connection receives exactly one receiveMessage")
		assert.Equal(t, msg.ID, payloadField(t, got[0], "id"))
		assert.Equal(t, "hi", payloadField(t, got[0], "content"))
	}

	require.NoError(t, svc.Delete(context.Background(), alice, msg.ID))

	for _, conn := range []*recordingConn{c1, c2} {
		got := conn.ofType(events.EventMessageDeleted)
		require.Len(t, got, 1)
		assert.Equal(t, msg.ID, payloadField(t, got[0], "messageId"))
		assert.Equal(t, bob, payloadField(t, got[0], "conversationPartnerId"))
	}
	got := c3.ofType(events.EventMessageDeleted)
	require.Len(t, got, 1)
	assert.Equal(t, alice, payloadField(t, got[0], "conversationPartnerId"))

	history, err := svc.History(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSendPersistsBeforeFanOut(t *testing.T) {
	users := store.NewMemoryUsers()
	messages := store.NewMemoryMessages()

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	// An events sink that reads history at dispatch time: the message must
	// already be durable when the first live event goes out.
	var seen int
	var svc *Service
	checker := eventsFunc(func(msg models.Message) {
		history, err := svc.History(context.Background(), alice, bob)
		require.NoError(t, err)
		for _, m := range history {
			if m.ID == msg.ID {
				seen++
			}
		}
	})
	svc = NewService(users, messages, checker)

	_, err := svc.Send(context.Background(), alice, bob, "durable first")
	require.NoError(t, err)
	assert.Equal(t, 1, seen, "fan-out must observe the persisted message")
}

// eventsFunc adapts a function to the Events interface.
type eventsFunc func(msg models.Message)

func (f eventsFunc) MessageReceived(msg models.Message) { f(msg) }

func (f eventsFunc) MessageDeleted(messageID, deleterID, partnerID string) {}
