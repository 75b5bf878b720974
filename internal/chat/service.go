// Package chat implements the direct message lifecycle: send, history and
// delete. Persistence always completes before live fan-out so a concurrent
// history fetch can never miss a message that was already delivered.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"chatterbox/server/internal/models"
	"chatterbox/server/internal/store"
)

var (
	// ErrEmptyContent is returned when the message is blank after trimming.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrUserNotFound is returned when sender or receiver does not resolve.
	ErrUserNotFound = errors.New("user not found")

	// ErrMessageNotFound is returned when the message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrForbidden is returned when someone other than the original sender
	// tries to delete a message.
	ErrForbidden = errors.New("only the sender may delete this message")
)

// Events is the outbound notification surface the service needs.
type Events interface {
	MessageReceived(msg models.Message)
	MessageDeleted(messageID, deleterID, partnerID string)
}

// Service handles sending, fetching and deleting direct messages.
type Service struct {
	users    store.Users
	messages store.Messages
	events   Events
}

// NewService creates a message service.
func NewService(users store.Users, messages store.Messages, events Events) *Service {
	return &Service{users: users, messages: messages, events: events}
}

// Send persists a message and fans it out to both parties' connections.
func (s *Service) Send(ctx context.Context, senderID, receiverID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	sender, err := s.users.ByID(ctx, senderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load sender: %w", err)
	}

	receiver, err := s.users.ByID(ctx, receiverID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load receiver: %w", err)
	}

	msg := models.Message{
		Sender:   models.UserRef{ID: sender.ID, Name: sender.Name},
		Receiver: models.UserRef{ID: receiver.ID, Name: receiver.Name},
		Content:  content,
	}
	if err := s.messages.Save(ctx, &msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	// Write-then-fanout: the message is durable before anyone sees it live.
	s.events.MessageReceived(msg)

	logrus.WithFields(logrus.Fields{
		"message_id":  msg.ID,
		"sender_id":   senderID,
		"receiver_id": receiverID,
	}).Debug("Message sent")

	return &msg, nil
}

// Delete removes a message. Only the original sender may delete it.
func (s *Service) Delete(ctx context.Context, requesterID, messageID string) error {
	msg, err := s.messages.ByID(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrMessageNotFound
	}
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}

	if msg.Sender.ID != requesterID {
		return ErrForbidden
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("delete message: %w", err)
	}

	s.events.MessageDeleted(messageID, requesterID, msg.PartnerOf(requesterID))

	logrus.WithFields(logrus.Fields{
		"message_id":   messageID,
		"requester_id": requesterID,
	}).Info("Message deleted")

	return nil
}

// History returns every message between the two users, timestamp ascending.
// Pure read, no side effects.
func (s *Service) History(ctx context.Context, userID, friendID string) ([]models.Message, error) {
	msgs, err := s.messages.Conversation(ctx, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}
