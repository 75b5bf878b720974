package models

import "time"

// User represents a registered user together with their friend graph state.
type User struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Email        string          `json:"email" db:"email"`
	PasswordHash string          `json:"-" db:"password_hash"` // Never expose in JSON
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	Friends      []string        `json:"-"` // Friend user IDs; symmetric with each friend's list
	Pending      []FriendRequest `json:"-"` // Incoming friend requests awaiting a decision
}

// UserResponse is what we send to clients (without sensitive data)
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// IsFriend reports whether the given user ID is in u's friend list.
func (u *User) IsFriend(userID string) bool {
	for _, id := range u.Friends {
		if id == userID {
			return true
		}
	}
	return false
}

// PendingFrom returns the pending request sent by senderID, if any.
func (u *User) PendingFrom(senderID string) *FriendRequest {
	for i := range u.Pending {
		if u.Pending[i].SenderID == senderID {
			return &u.Pending[i]
		}
	}
	return nil
}
