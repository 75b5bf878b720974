package handlers

import (
	"github.com/gofiber/fiber/v2"

	"chatterbox/server/internal/middleware"
)

// SendMessageRequest represents send message request body
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// SendMessage sends a direct message over the request/response surface
func (h *Handlers) SendMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if req.ReceiverID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Receiver ID is required",
		})
	}

	msg, err := h.Chat.Send(c.Context(), userID, req.ReceiverID, req.Content)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    msg,
	})
}

// GetMessages returns the full conversation with one friend, oldest first
func (h *Handlers) GetMessages(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	friendID := c.Params("friendId")

	msgs, err := h.Chat.History(c.Context(), userID, friendID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    msgs,
	})
}

// DeleteMessage deletes one of the caller's own messages
func (h *Handlers) DeleteMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	messageID := c.Params("messageId")

	if err := h.Chat.Delete(c.Context(), userID, messageID); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message deleted",
	})
}
