package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"chatterbox/server/internal/middleware"
	"chatterbox/server/internal/models"
	"chatterbox/server/internal/store"
	"chatterbox/server/internal/utils"
)

// UpdateProfileRequest represents profile update request body. Zero-value
// fields are left unchanged.
type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SearchUsers searches users by name or email, excluding the caller
func (h *Handlers) SearchUsers(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	query := c.Query("query")
	if query == "" {
		query = c.Query("q")
	}
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Search query is required",
		})
	}

	users, err := h.Users.Search(c.Context(), query, userID)
	if err != nil {
		return fail(c, err)
	}

	results := make([]models.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, users[i].ToResponse())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    results,
	})
}

// UpdateProfile updates the caller's own profile
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if c.Params("id") != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "You may only edit your own profile",
		})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	user, err := h.Users.ByID(c.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "User not found",
		})
	}
	if err != nil {
		return fail(c, err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to hash password",
			})
		}
		user.PasswordHash = hash
	}

	if err := h.Users.UpdateProfile(c.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   "Email already in use by another user",
			})
		}
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user.ToResponse(),
	})
}
