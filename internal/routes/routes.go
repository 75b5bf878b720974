package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"chatterbox/server/internal/handlers"
	"chatterbox/server/internal/middleware"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, h *handlers.Handlers) {
	api := app.Group("/api")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Chatterbox API is running",
		})
	})

	// Auth routes (public)
	api.Post("/register", middleware.StrictRateLimiter(), h.Register)
	api.Post("/login", middleware.StrictRateLimiter(), h.Login)
	api.Get("/check-email", middleware.RelaxedRateLimiter(), h.CheckEmail)

	// User routes (protected)
	users := api.Group("/users", middleware.AuthMiddleware)
	users.Get("/search", h.SearchUsers)
	users.Put("/:id", h.UpdateProfile)
	users.Get("/:id/friends", h.GetFriends)

	// Friend request routes (protected)
	requests := api.Group("/friend-requests", middleware.AuthMiddleware)
	requests.Post("/send", middleware.ModerateRateLimiter(), h.SendFriendRequest)
	requests.Get("/pending", h.GetPendingRequests)
	requests.Post("/accept", h.AcceptFriendRequest)
	requests.Post("/reject", h.RejectFriendRequest)

	// Message routes (protected)
	messages := api.Group("/messages", middleware.AuthMiddleware)
	messages.Post("/", h.SendMessage)
	messages.Get("/:friendId", h.GetMessages)
	messages.Delete("/:messageId", h.DeleteMessage)

	// WebSocket route (protected)
	api.Get("/ws", middleware.AuthMiddleware, h.WebSocketUpgrade, websocket.New(h.WebSocketHandler))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", middleware.AuthMiddleware, h.GetWebSocketStats)
}
