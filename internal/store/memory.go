package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatterbox/server/internal/models"
)

// MemoryUsers is an in-process Users implementation backed by maps. It
// serializes all mutations with a single mutex, which is enough to honor the
// per-user critical section contract for a store this small. Used by tests
// and for running without a database.
type MemoryUsers struct {
	mu     sync.RWMutex
	users  map[string]*models.User
	emails map[string]string // lowercased email -> user id
}

// NewMemoryUsers creates an empty in-memory user store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		users:  make(map[string]*models.User),
		emails: make(map[string]string),
	}
}

func copyUser(u *models.User) *models.User {
	out := *u
	out.Friends = append([]string(nil), u.Friends...)
	out.Pending = append([]models.FriendRequest(nil), u.Pending...)
	return &out
}

func (m *MemoryUsers) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := m.emails[key]; taken {
		return ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.ID] = copyUser(user)
	m.emails[key] = user.ID
	return nil
}

func (m *MemoryUsers) ByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *MemoryUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(m.users[id]), nil
}

func (m *MemoryUsers) EmailTaken(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, taken := m.emails[strings.ToLower(email)]
	return taken, nil
}

func (m *MemoryUsers) UpdateProfile(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return ErrNotFound
	}

	key := strings.ToLower(user.Email)
	if owner, taken := m.emails[key]; taken && owner != user.ID {
		return ErrDuplicateEmail
	}

	delete(m.emails, strings.ToLower(existing.Email))
	existing.Name = user.Name
	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	m.emails[key] = user.ID
	return nil
}

func (m *MemoryUsers) Search(ctx context.Context, query, excludeID string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	var out []models.User
	for _, u := range m.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, *copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryUsers) Friends(ctx context.Context, userID string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]models.User, 0, len(u.Friends))
	for _, fid := range u.Friends {
		if f, ok := m.users[fid]; ok {
			out = append(out, *copyUser(f))
		}
	}
	return out, nil
}

func (m *MemoryUsers) Pending(ctx context.Context, userID string) ([]models.PendingRequestView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]models.PendingRequestView, 0, len(u.Pending))
	for _, req := range u.Pending {
		sender, ok := m.users[req.SenderID]
		if !ok {
			continue
		}
		out = append(out, models.PendingRequestView{
			ID:        req.ID,
			Sender:    sender.ToResponse(),
			Status:    req.Status,
			CreatedAt: req.CreatedAt,
		})
	}
	return out, nil
}

func (m *MemoryUsers) AddPending(ctx context.Context, receiverID string, req models.FriendRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[receiverID]
	if !ok {
		return ErrNotFound
	}
	u.Pending = append(u.Pending, req)
	return nil
}

func (m *MemoryUsers) TakePending(ctx context.Context, receiverID, requestID string) (models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[receiverID]
	if !ok {
		return models.FriendRequest{}, ErrNotFound
	}
	for i, req := range u.Pending {
		if req.ID == requestID && req.Status == models.RequestPending {
			u.Pending = append(u.Pending[:i], u.Pending[i+1:]...)
			return req, nil
		}
	}
	return models.FriendRequest{}, ErrNotFound
}

func (m *MemoryUsers) AddFriendship(ctx context.Context, userID, friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	b, ok := m.users[friendID]
	if !ok {
		return ErrNotFound
	}
	if !a.IsFriend(friendID) {
		a.Friends = append(a.Friends, friendID)
	}
	if !b.IsFriend(userID) {
		b.Friends = append(b.Friends, userID)
	}
	return nil
}

// MemoryMessages is an in-process Messages implementation. Timestamps are
// clamped to be non-decreasing across inserts and a sequence number breaks
// ties in conversation ordering.
type MemoryMessages struct {
	mu       sync.RWMutex
	messages map[string]*models.Message
	seq      int64
	lastTS   time.Time
}

// NewMemoryMessages creates an empty in-memory message store.
func NewMemoryMessages() *MemoryMessages {
	return &MemoryMessages{messages: make(map[string]*models.Message)}
}

func (m *MemoryMessages) Save(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	ts := time.Now()
	if ts.Before(m.lastTS) {
		ts = m.lastTS
	}
	m.lastTS = ts
	m.seq++
	msg.Timestamp = ts
	msg.Seq = m.seq

	stored := *msg
	m.messages[msg.ID] = &stored
	return nil
}

func (m *MemoryMessages) ByID(ctx context.Context, id string) (*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msg, ok := m.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *msg
	return &out, nil
}

func (m *MemoryMessages) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.messages[id]; !ok {
		return ErrNotFound
	}
	delete(m.messages, id)
	return nil
}

func (m *MemoryMessages) Conversation(ctx context.Context, userID, friendID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Message
	for _, msg := range m.messages {
		between := (msg.Sender.ID == userID && msg.Receiver.ID == friendID) ||
			(msg.Sender.ID == friendID && msg.Receiver.ID == userID)
		if between {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
