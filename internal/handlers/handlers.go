package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"chatterbox/server/internal/chat"
	"chatterbox/server/internal/friends"
	"chatterbox/server/internal/registry"
	"chatterbox/server/internal/store"
)

// Handlers bundles the services behind the HTTP and websocket surface.
type Handlers struct {
	Users    store.Users
	Friends  *friends.Service
	Chat     *chat.Service
	Registry *registry.Registry
}

// New wires the handler set.
func New(users store.Users, friendSvc *friends.Service, chatSvc *chat.Service, reg *registry.Registry) *Handlers {
	return &Handlers{Users: users, Friends: friendSvc, Chat: chatSvc, Registry: reg}
}

// fail maps a service error onto the HTTP taxonomy: not-found 404, conflict
// 409, forbidden 403, invalid input 400, anything else 500.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, friends.ErrUserNotFound),
		errors.Is(err, friends.ErrRequestNotFound),
		errors.Is(err, chat.ErrUserNotFound),
		errors.Is(err, chat.ErrMessageNotFound),
		errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
		message = err.Error()
	case errors.Is(err, friends.ErrSelfRequest),
		errors.Is(err, friends.ErrAlreadyFriends),
		errors.Is(err, friends.ErrDuplicatePending),
		errors.Is(err, friends.ErrReverseDuplicatePending),
		errors.Is(err, store.ErrDuplicateEmail):
		status = fiber.StatusConflict
		message = err.Error()
	case errors.Is(err, chat.ErrForbidden):
		status = fiber.StatusForbidden
		message = err.Error()
	case errors.Is(err, chat.ErrEmptyContent):
		status = fiber.StatusBadRequest
		message = err.Error()
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
