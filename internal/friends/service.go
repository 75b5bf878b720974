// Package friends implements the friend-request state machine and the
// symmetric friendship edge it produces. Per ordered pair the lifecycle is
// None -> Pending -> Accepted or Rejected; terminal requests are removed
// from storage rather than archived.
package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chatterbox/server/internal/models"
	"chatterbox/server/internal/store"
)

var (
	// ErrSelfRequest is returned when a user friend-requests themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")

	// ErrAlreadyFriends is returned when the pair already share an edge.
	ErrAlreadyFriends = errors.New("already friends with this user")

	// ErrDuplicatePending is returned when the sender already has a pending
	// request to the receiver.
	ErrDuplicatePending = errors.New("friend request already pending")

	// ErrReverseDuplicatePending is returned when the receiver already has a
	// pending request to the sender. The earlier request wins; the caller
	// should respond to it instead of creating a second one.
	ErrReverseDuplicatePending = errors.New("this user already sent you a friend request")

	// ErrUserNotFound is returned when either user id does not resolve.
	ErrUserNotFound = errors.New("user not found")

	// ErrRequestNotFound is returned when no pending request with the given
	// id exists under the receiver.
	ErrRequestNotFound = errors.New("friend request not found or already handled")
)

// Events is the outbound notification surface the service needs.
type Events interface {
	FriendRequestReceived(receiverID string, sender models.UserResponse)
	FriendRequestAccepted(senderID string, accepter models.UserResponse)
	FriendRequestRejected(senderID string, rejecter models.UserResponse)
	FriendListUpdated(userID, friendID string)
	PendingRequestsUpdated(userID, requestID string)
}

// Service runs the friend graph on top of the user store. All mutations on a
// pair of users run inside that pair's critical section.
type Service struct {
	users  store.Users
	events Events
	locks  *userLocks
}

// NewService creates a friend graph service.
func NewService(users store.Users, events Events) *Service {
	return &Service{users: users, events: events, locks: newUserLocks()}
}

// SendRequest creates a pending friend request from sender to receiver and
// notifies the receiver's live connections.
func (s *Service) SendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	unlock := s.locks.lockPair(senderID, receiverID)

	sender, err := s.users.ByID(ctx, senderID)
	if errors.Is(err, store.ErrNotFound) {
		unlock()
		return nil, ErrUserNotFound
	}
	if err != nil {
		unlock()
		return nil, fmt.Errorf("load sender: %w", err)
	}

	receiver, err := s.users.ByID(ctx, receiverID)
	if errors.Is(err, store.ErrNotFound) {
		unlock()
		return nil, ErrUserNotFound
	}
	if err != nil {
		unlock()
		return nil, fmt.Errorf("load receiver: %w", err)
	}

	switch {
	case sender.IsFriend(receiverID):
		unlock()
		return nil, ErrAlreadyFriends
	case receiver.PendingFrom(senderID) != nil:
		unlock()
		return nil, ErrDuplicatePending
	case sender.PendingFrom(receiverID) != nil:
		// The reverse request was first; it wins the tie-break.
		unlock()
		return nil, ErrReverseDuplicatePending
	}

	req := models.FriendRequest{
		ID:        uuid.NewString(),
		SenderID:  senderID,
		Status:    models.RequestPending,
		CreatedAt: time.Now(),
	}
	if err := s.users.AddPending(ctx, receiverID, req); err != nil {
		unlock()
		return nil, fmt.Errorf("persist friend request: %w", err)
	}
	unlock()

	s.events.FriendRequestReceived(receiverID, sender.ToResponse())

	logrus.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"sender_id":   senderID,
		"receiver_id": receiverID,
	}).Info("Friend request sent")

	return &req, nil
}

// AcceptRequest removes the pending request and records the symmetric edge.
// Racing accept/reject calls on the same request id resolve to exactly one
// winner: removing the request from the store is the linearization point.
func (s *Service) AcceptRequest(ctx context.Context, receiverID, requestID string) error {
	receiver, err := s.users.ByID(ctx, receiverID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("load receiver: %w", err)
	}

	// Peek at the request to learn the sender, then take the pair lock and
	// claim it for real. The claim re-checks existence, so a request that
	// was handled in between surfaces as not found.
	senderID := ""
	for _, req := range receiver.Pending {
		if req.ID == requestID {
			senderID = req.SenderID
			break
		}
	}
	if senderID == "" {
		return ErrRequestNotFound
	}

	unlock := s.locks.lockPair(receiverID, senderID)

	req, err := s.users.TakePending(ctx, receiverID, requestID)
	if errors.Is(err, store.ErrNotFound) {
		unlock()
		return ErrRequestNotFound
	}
	if err != nil {
		unlock()
		return fmt.Errorf("claim friend request: %w", err)
	}

	if err := s.users.AddFriendship(ctx, receiverID, req.SenderID); err != nil {
		unlock()
		return fmt.Errorf("persist friendship: %w", err)
	}
	unlock()

	s.events.FriendRequestAccepted(req.SenderID, receiver.ToResponse())
	s.events.FriendListUpdated(receiverID, req.SenderID)

	logrus.WithFields(logrus.Fields{
		"request_id":  requestID,
		"sender_id":   req.SenderID,
		"receiver_id": receiverID,
	}).Info("Friend request accepted")

	return nil
}

// RejectRequest removes the pending request without creating an edge.
func (s *Service) RejectRequest(ctx context.Context, receiverID, requestID string) error {
	receiver, err := s.users.ByID(ctx, receiverID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("load receiver: %w", err)
	}

	lock := s.locks.get(receiverID)
	lock.Lock()
	req, err := s.users.TakePending(ctx, receiverID, requestID)
	lock.Unlock()
	if errors.Is(err, store.ErrNotFound) {
		return ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("claim friend request: %w", err)
	}

	s.events.FriendRequestRejected(req.SenderID, receiver.ToResponse())
	s.events.PendingRequestsUpdated(receiverID, requestID)

	logrus.WithFields(logrus.Fields{
		"request_id":  requestID,
		"sender_id":   req.SenderID,
		"receiver_id": receiverID,
	}).Info("Friend request rejected")

	return nil
}

// ListFriends returns the user's current friends.
func (s *Service) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	friends, err := s.users.Friends(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return friends, err
}

// ListPending returns the user's incoming pending requests with sender info.
func (s *Service) ListPending(ctx context.Context, userID string) ([]models.PendingRequestView, error) {
	pending, err := s.users.Pending(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return pending, err
}
