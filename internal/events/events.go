package events

import "time"

// Type identifies a live-channel event.
type Type string

const (
	// Inbound events (client -> server)
	EventRegister    Type = "register"
	EventSendMessage Type = "sendMessage"

	// Outbound message events
	EventReceiveMessage Type = "receiveMessage"
	EventMessageDeleted Type = "messageDeleted"

	// Outbound friend graph events
	EventFriendRequestReceived  Type = "friendRequestReceived"
	EventFriendRequestAccepted  Type = "friendRequestAccepted"
	EventFriendRequestRejected  Type = "friendRequestRejected"
	EventFriendListUpdated      Type = "friendListUpdated"
	EventPendingRequestsUpdated Type = "pendingRequestsUpdated"

	// Error events
	EventError Type = "error"
)

// Envelope is the wire shape of every live-channel event.
type Envelope struct {
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// RegisterPayload is the inbound register event body.
type RegisterPayload struct {
	UserID string `json:"userId"`
}

// SendMessagePayload is the inbound sendMessage event body.
type SendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// MessageDeletedPayload announces a deleted message to both conversation
// parties. ConversationPartnerID is relative to the receiving user.
type MessageDeletedPayload struct {
	MessageID             string `json:"messageId"`
	ConversationPartnerID string `json:"conversationPartnerId"`
}

// FriendRequestReceivedPayload notifies the receiver of a new request.
type FriendRequestReceivedPayload struct {
	SenderID    string `json:"senderId"`
	SenderName  string `json:"senderName"`
	SenderEmail string `json:"senderEmail"`
}

// FriendRequestAcceptedPayload notifies the original sender of an accept.
type FriendRequestAcceptedPayload struct {
	AccepterID    string `json:"accepterId"`
	AccepterName  string `json:"accepterName"`
	AccepterEmail string `json:"accepterEmail"`
}

// FriendRequestRejectedPayload notifies the original sender of a reject.
type FriendRequestRejectedPayload struct {
	RejecterID   string `json:"rejecterId"`
	RejecterName string `json:"rejecterName"`
}

// FriendListUpdatedPayload syncs the accepter's own other connections.
type FriendListUpdatedPayload struct {
	FriendID string `json:"friendId"`
}

// PendingRequestsUpdatedPayload syncs the rejecter's own other connections.
type PendingRequestsUpdatedPayload struct {
	RequestID string `json:"requestId"`
}

// ErrorPayload reports a failed inbound event back to one connection.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEnvelope wraps a payload with its type and the current time.
func NewEnvelope(t Type, payload interface{}) Envelope {
	return Envelope{Type: t, Payload: payload, Timestamp: time.Now()}
}
