package models

import "time"

// UserRef is the sender/receiver snapshot embedded in a message. The name is
// captured at send time so history stays readable if a user renames later.
type UserRef struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Message represents a direct message between two users. Immutable once
// created except for whole-record deletion by its sender.
type Message struct {
	ID        string    `json:"id" db:"id"`
	Sender    UserRef   `json:"sender"`
	Receiver  UserRef   `json:"receiver"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`

	// Seq is the store-assigned insertion sequence, used to break timestamp
	// ties when ordering a conversation. Not part of the wire payload.
	Seq int64 `json:"-" db:"seq"`
}

// PartnerOf returns the conversation partner of userID for this message.
func (m *Message) PartnerOf(userID string) string {
	if m.Sender.ID == userID {
		return m.Receiver.ID
	}
	return m.Sender.ID
}
