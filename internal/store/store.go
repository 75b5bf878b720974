// Package store holds durable state for users, friend requests and messages.
// It is the single source of truth: live events are a convenience layer and
// every event payload must be reconstructable from a store read.
package store

import (
	"context"
	"errors"

	"chatterbox/server/internal/models"
)

var (
	// ErrNotFound is returned when a user, request or message does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when creating or updating a user with an
	// email that another user already holds.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Users is the persistence surface for user records and the friend graph
// embedded in them.
type Users interface {
	Create(ctx context.Context, user *models.User) error
	ByID(ctx context.Context, id string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query, excludeID string) ([]models.User, error)

	Friends(ctx context.Context, userID string) ([]models.User, error)
	Pending(ctx context.Context, userID string) ([]models.PendingRequestView, error)
	AddPending(ctx context.Context, receiverID string, req models.FriendRequest) error

	// TakePending atomically removes and returns the pending request with the
	// given id under receiverID. It returns ErrNotFound if no such pending
	// request exists, which makes it the linearization point for racing
	// accept/reject calls: exactly one caller gets the request.
	TakePending(ctx context.Context, receiverID, requestID string) (models.FriendRequest, error)

	// AddFriendship records the symmetric edge on both users in one
	// transaction. Adding an existing edge is a no-op.
	AddFriendship(ctx context.Context, userID, friendID string) error
}

// Messages is the persistence surface for direct messages.
type Messages interface {
	// Save persists the message, assigning its ID, timestamp and sequence
	// number. Timestamps are non-decreasing in insertion order.
	Save(ctx context.Context, msg *models.Message) error
	ByID(ctx context.Context, id string) (*models.Message, error)
	Delete(ctx context.Context, id string) error

	// Conversation returns every message between the two users ordered by
	// timestamp ascending, ties broken by insertion order.
	Conversation(ctx context.Context, userID, friendID string) ([]models.Message, error)
}
