package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chatterbox/server/internal/events"
	ws "chatterbox/server/internal/websocket"
)

// WebSocketUpgrade checks if the request should be upgraded to WebSocket
func (h *Handlers) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"success": false,
		"error":   "WebSocket upgrade required",
	})
}

// WebSocketHandler handles an upgraded live connection for its lifetime.
func (h *Handlers) WebSocketHandler(c *websocket.Conn) {
	userID := c.Locals("userID").(string)

	client := ws.NewClient(uuid.NewString(), userID, c)
	client.OnEvent = h.handleInbound
	client.OnClose = func(cl *ws.Client) {
		h.Registry.Unregister(cl.ID)
	}

	// The connection is live for its user as soon as the transport is up;
	// the inbound register event is accepted as an idempotent re-register.
	h.Registry.Register(userID, client.ID, client)

	logrus.WithFields(logrus.Fields{
		"conn_id": client.ID,
		"user_id": userID,
	}).Info("Client connected")

	go client.WritePump()
	client.ReadPump() // blocks until the connection closes

	logrus.WithFields(logrus.Fields{
		"conn_id": client.ID,
		"user_id": userID,
	}).Info("Client disconnected")
}

// handleInbound routes a client-to-server event to the owning service.
func (h *Handlers) handleInbound(client *ws.Client, in ws.Inbound) {
	switch in.Type {
	case events.EventRegister:
		var payload events.RegisterPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			client.SendEvent(events.EventError, events.ErrorPayload{
				Code: "invalid_payload", Message: "Malformed register payload",
			})
			return
		}
		if payload.UserID != "" && payload.UserID != client.UserID {
			client.SendEvent(events.EventError, events.ErrorPayload{
				Code: "forbidden", Message: "Cannot register as another user",
			})
			return
		}
		h.Registry.Register(client.UserID, client.ID, client)

	case events.EventSendMessage:
		var payload events.SendMessagePayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			client.SendEvent(events.EventError, events.ErrorPayload{
				Code: "invalid_payload", Message: "Malformed sendMessage payload",
			})
			return
		}
		if payload.SenderID != "" && payload.SenderID != client.UserID {
			client.SendEvent(events.EventError, events.ErrorPayload{
				Code: "forbidden", Message: "Cannot send as another user",
			})
			return
		}
		if _, err := h.Chat.Send(context.Background(), client.UserID, payload.ReceiverID, payload.Content); err != nil {
			client.SendEvent(events.EventError, events.ErrorPayload{
				Code: "send_failed", Message: err.Error(),
			})
		}

	default:
		logrus.WithFields(logrus.Fields{
			"conn_id": client.ID,
			"type":    in.Type,
		}).Warn("Unknown inbound event type")
	}
}

// GetWebSocketStats returns live connection statistics
func (h *Handlers) GetWebSocketStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"onlineUsers": h.Registry.OnlineUsers(),
			"connections": h.Registry.ConnectionCount(),
		},
	})
}
