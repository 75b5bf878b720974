// Package dispatch translates service outcomes into named live-channel
// events pushed through the connection registry. Delivery is best effort;
// the store remains the authoritative record.
package dispatch

import (
	"github.com/sirupsen/logrus"

	"chatterbox/server/internal/events"
	"chatterbox/server/internal/models"
	"chatterbox/server/internal/registry"
)

// Dispatcher fans service events out to the affected users' connections.
type Dispatcher struct {
	reg *registry.Registry
}

// New creates a dispatcher on top of the given registry.
func New(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// MessageReceived delivers a persisted message to both parties, sender
// included so all of the sender's own open sessions stay in sync.
func (d *Dispatcher) MessageReceived(msg models.Message) {
	d.reg.Send(msg.Sender.ID, events.EventReceiveMessage, msg)
	if msg.Receiver.ID != msg.Sender.ID {
		d.reg.Send(msg.Receiver.ID, events.EventReceiveMessage, msg)
	}

	logrus.WithFields(logrus.Fields{
		"message_id":  msg.ID,
		"sender_id":   msg.Sender.ID,
		"receiver_id": msg.Receiver.ID,
	}).Debug("Dispatched receiveMessage")
}

// MessageDeleted announces a deletion to both parties. The partner id in
// each payload is relative to the user receiving the event.
func (d *Dispatcher) MessageDeleted(messageID, deleterID, partnerID string) {
	d.reg.Send(deleterID, events.EventMessageDeleted, events.MessageDeletedPayload{
		MessageID:             messageID,
		ConversationPartnerID: partnerID,
	})
	if partnerID != deleterID {
		d.reg.Send(partnerID, events.EventMessageDeleted, events.MessageDeletedPayload{
			MessageID:             messageID,
			ConversationPartnerID: deleterID,
		})
	}
}

// FriendRequestReceived notifies the receiver of a new pending request.
func (d *Dispatcher) FriendRequestReceived(receiverID string, sender models.UserResponse) {
	d.reg.Send(receiverID, events.EventFriendRequestReceived, events.FriendRequestReceivedPayload{
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		SenderEmail: sender.Email,
	})
}

// FriendRequestAccepted notifies the original sender, and syncs the
// accepter's own other connections via friendListUpdated.
func (d *Dispatcher) FriendRequestAccepted(senderID string, accepter models.UserResponse) {
	d.reg.Send(senderID, events.EventFriendRequestAccepted, events.FriendRequestAcceptedPayload{
		AccepterID:    accepter.ID,
		AccepterName:  accepter.Name,
		AccepterEmail: accepter.Email,
	})
}

// FriendRequestRejected notifies the original sender of the rejection.
func (d *Dispatcher) FriendRequestRejected(senderID string, rejecter models.UserResponse) {
	d.reg.Send(senderID, events.EventFriendRequestRejected, events.FriendRequestRejectedPayload{
		RejecterID:   rejecter.ID,
		RejecterName: rejecter.Name,
	})
}

// FriendListUpdated syncs every open session of the user after an accept.
func (d *Dispatcher) FriendListUpdated(userID, friendID string) {
	d.reg.Send(userID, events.EventFriendListUpdated, events.FriendListUpdatedPayload{
		FriendID: friendID,
	})
}

// PendingRequestsUpdated syncs every open session of the user after a reject.
func (d *Dispatcher) PendingRequestsUpdated(userID, requestID string) {
	d.reg.Send(userID, events.EventPendingRequestsUpdated, events.PendingRequestsUpdatedPayload{
		RequestID: requestID,
	})
}
