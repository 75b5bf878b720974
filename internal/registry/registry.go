package registry

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"chatterbox/server/internal/events"
)

// Conn is a live connection sink. Send must not block; an implementation
// drops the event when its buffer is full or the peer is gone.
type Conn interface {
	Send(data []byte) error
}

// userConns holds all live connections of a single user. Each user carries
// its own lock so fan-out to one user never serializes another user's traffic.
type userConns struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// Registry tracks which live connections belong to which user and pushes
// named events to all of them. Delivery is best effort: events to a user
// with no open connections are silently absorbed.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]*userConns
	owners map[string]string // connID -> userID reverse index
}

// New creates an empty connection registry.
func New() *Registry {
	return &Registry{
		users:  make(map[string]*userConns),
		owners: make(map[string]string),
	}
}

// Register adds a connection to the user's set. Registering the same
// connection ID twice is a no-op for the set; the handle is replaced.
func (r *Registry) Register(userID, connID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	uc, ok := r.users[userID]
	if !ok {
		uc = &userConns{conns: make(map[string]Conn)}
		r.users[userID] = uc
	}
	r.owners[connID] = userID

	uc.mu.Lock()
	uc.conns[connID] = conn
	uc.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"conn_id": connID,
		"total":   len(uc.conns),
	}).Debug("Connection registered")
}

// Unregister removes the connection from whichever user owns it. Unknown
// connection IDs are ignored.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[connID]
	if !ok {
		return
	}
	delete(r.owners, connID)

	uc := r.users[userID]
	if uc == nil {
		return
	}

	uc.mu.Lock()
	delete(uc.conns, connID)
	remaining := len(uc.conns)
	uc.mu.Unlock()

	if remaining == 0 {
		delete(r.users, userID)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"conn_id":   connID,
		"remaining": remaining,
	}).Debug("Connection unregistered")
}

// Send pushes an event to every live connection of the user. A user with
// zero connections is a silent no-op; a failed push to one connection does
// not affect the others.
func (r *Registry) Send(userID string, t events.Type, payload interface{}) {
	r.mu.RLock()
	uc := r.users[userID]
	r.mu.RUnlock()

	if uc == nil {
		return
	}

	data, err := json.Marshal(events.NewEnvelope(t, payload))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"event":   t,
		}).WithError(err).Error("Failed to marshal event")
		return
	}

	uc.mu.RLock()
	conns := make([]Conn, 0, len(uc.conns))
	for _, c := range uc.conns {
		conns = append(conns, c)
	}
	uc.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(data); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"event":   t,
			}).WithError(err).Warn("Dropped event for slow connection")
		}
	}
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[userID] != nil
}

// OnlineUsers returns the IDs of users with at least one live connection.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}

// ConnectionCount returns the total number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}
