package handlers

import (
	"github.com/gofiber/fiber/v2"

	"chatterbox/server/internal/middleware"
	"chatterbox/server/internal/models"
)

// SendFriendRequestRequest represents send friend request body
type SendFriendRequestRequest struct {
	ReceiverID string `json:"receiverId"`
}

// RespondFriendRequestRequest represents accept/reject request body
type RespondFriendRequestRequest struct {
	RequestID string `json:"requestId"`
}

// SendFriendRequest creates a pending friend request
func (h *Handlers) SendFriendRequest(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req SendFriendRequestRequest
	if err := c.BodyParser(&req); err != nil || req.ReceiverID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Receiver ID is required",
		})
	}

	request, err := h.Friends.SendRequest(c.Context(), userID, req.ReceiverID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    request,
	})
}

// AcceptFriendRequest accepts a pending friend request
func (h *Handlers) AcceptFriendRequest(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req RespondFriendRequestRequest
	if err := c.BodyParser(&req); err != nil || req.RequestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Request ID is required",
		})
	}

	if err := h.Friends.AcceptRequest(c.Context(), userID, req.RequestID); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Friend request accepted",
	})
}

// RejectFriendRequest rejects a pending friend request
func (h *Handlers) RejectFriendRequest(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req RespondFriendRequestRequest
	if err := c.BodyParser(&req); err != nil || req.RequestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Request ID is required",
		})
	}

	if err := h.Friends.RejectRequest(c.Context(), userID, req.RequestID); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Friend request rejected",
	})
}

// GetFriends returns the caller's friend list. Another user's list is off
// limits.
func (h *Handlers) GetFriends(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if c.Params("id") != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "You may only view your own friend list",
		})
	}

	list, err := h.Friends.ListFriends(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}

	results := make([]models.UserResponse, 0, len(list))
	for i := range list {
		results = append(results, list[i].ToResponse())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    results,
	})
}

// GetPendingRequests returns the caller's incoming pending friend requests
func (h *Handlers) GetPendingRequests(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	pending, err := h.Friends.ListPending(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	if pending == nil {
		pending = []models.PendingRequestView{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    pending,
	})
}
