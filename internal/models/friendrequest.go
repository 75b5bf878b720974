package models

import "time"

// RequestStatus is the lifecycle state of a friend request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// FriendRequest is an incoming friend request stored under the receiver.
// Accepted and rejected requests are removed rather than archived.
type FriendRequest struct {
	ID        string        `json:"id" db:"id"`
	SenderID  string        `json:"senderId" db:"sender_id"`
	Status    RequestStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}

// PendingRequestView is a pending request joined with its sender's public
// profile, as returned by the pending-requests listing.
type PendingRequestView struct {
	ID        string        `json:"id"`
	Sender    UserResponse  `json:"sender"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}
