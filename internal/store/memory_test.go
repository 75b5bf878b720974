package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/server/internal/models"
)

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	users := NewMemoryUsers()

	first := models.User{Name: "alice", Email: "a@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), &first))

	dup := models.User{Name: "imposter", Email: "A@Example.com", PasswordHash: "x"}
	assert.ErrorIs(t, users.Create(context.Background(), &dup), ErrDuplicateEmail)
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	users := NewMemoryUsers()

	alice := models.User{Name: "alice", Email: "a@example.com", PasswordHash: "x"}
	bob := models.User{Name: "bob", Email: "b@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), &alice))
	require.NoError(t, users.Create(context.Background(), &bob))

	bob.Email = "a@example.com"
	assert.ErrorIs(t, users.UpdateProfile(context.Background(), &bob), ErrDuplicateEmail)

	bob.Email = "new@example.com"
	require.NoError(t, users.UpdateProfile(context.Background(), &bob))

	got, err := users.ByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	_, err = users.ByEmail(context.Background(), "b@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestByIDReturnsACopy(t *testing.T) {
	users := NewMemoryUsers()

	alice := models.User{Name: "alice", Email: "a@example.com", PasswordHash: "x"}
	bob := models.User{Name: "bob", Email: "b@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), &alice))
	require.NoError(t, users.Create(context.Background(), &bob))
	require.NoError(t, users.AddFriendship(context.Background(), alice.ID, bob.ID))

	got, err := users.ByID(context.Background(), alice.ID)
	require.NoError(t, err)
	got.Friends[0] = "tampered"

	again, err := users.ByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, again.Friends)
}

func TestTakePendingSingleWinner(t *testing.T) {
	users := NewMemoryUsers()

	alice := models.User{Name: "alice", Email: "a@example.com", PasswordHash: "x"}
	bob := models.User{Name: "bob", Email: "b@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), &alice))
	require.NoError(t, users.Create(context.Background(), &bob))

	req := models.FriendRequest{ID: "req-1", SenderID: alice.ID, Status: models.RequestPending}
	require.NoError(t, users.AddPending(context.Background(), bob.ID, req))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = users.TakePending(context.Background(), bob.ID, "req-1")
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrNotFound)
		}
	}
	assert.Equal(t, 1, won, "only one caller may claim the request")
}

func TestAddFriendshipIsIdempotent(t *testing.T) {
	users := NewMemoryUsers()

	alice := models.User{Name: "alice", Email: "a@example.com", PasswordHash: "x"}
	bob := models.User{Name: "bob", Email: "b@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), &alice))
	require.NoError(t, users.Create(context.Background(), &bob))

	require.NoError(t, users.AddFriendship(context.Background(), alice.ID, bob.ID))
	require.NoError(t, users.AddFriendship(context.Background(), bob.ID, alice.ID))

	a, err := users.ByID(context.Background(), alice.ID)
	require.NoError(t, err)
	b, err := users.ByID(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Len(t, a.Friends, 1)
	assert.Len(t, b.Friends, 1)
}

func TestMessageTimestampsNonDecreasing(t *testing.T) {
	messages := NewMemoryMessages()

	var msgs []models.Message
	for i := 0; i < 100; i++ {
		msg := models.Message{
			Sender:   models.UserRef{ID: "a", Name: "alice"},
			Receiver: models.UserRef{ID: "b", Name: "bob"},
			Content:  "x",
		}
		require.NoError(t, messages.Save(context.Background(), &msg))
		msgs = append(msgs, msg)
	}

	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
		assert.Greater(t, msgs[i].Seq, msgs[i-1].Seq)
	}

	conv, err := messages.Conversation(context.Background(), "b", "a")
	require.NoError(t, err)
	require.Len(t, conv, 100)
	for i := 1; i < len(conv); i++ {
		assert.Greater(t, conv[i].Seq, conv[i-1].Seq, "ties break by insertion order")
	}
}

func TestConversationFiltersOtherPairs(t *testing.T) {
	messages := NewMemoryMessages()

	save := func(from, to string) {
		msg := models.Message{
			Sender:   models.UserRef{ID: from, Name: from},
			Receiver: models.UserRef{ID: to, Name: to},
			Content:  "x",
		}
		require.NoError(t, messages.Save(context.Background(), &msg))
	}
	save("a", "b")
	save("b", "a")
	save("a", "c")
	save("c", "b")

	conv, err := messages.Conversation(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Len(t, conv, 2)
}
