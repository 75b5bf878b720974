package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"chatterbox/server/internal/chat"
	"chatterbox/server/internal/database"
	"chatterbox/server/internal/dispatch"
	"chatterbox/server/internal/friends"
	"chatterbox/server/internal/handlers"
	"chatterbox/server/internal/registry"
	"chatterbox/server/internal/routes"
	"chatterbox/server/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}

	ctx := context.Background()

	// Connect to database
	pool, err := database.Connect(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logrus.WithError(err).Fatal("Failed to migrate database schema")
	}

	users := store.NewPostgresUsers(pool)
	messages := store.NewPostgresMessages(pool)

	reg := registry.New()
	dispatcher := dispatch.New(reg)
	friendSvc := friends.NewService(users, dispatcher)
	chatSvc := chat.NewService(users, messages, dispatcher)

	h := handlers.New(users, friendSvc, chatSvc, reg)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Chatterbox API v1.0",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     frontendURL(),
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(app, h)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	logrus.WithField("port", port).Info("Server starting")
	if err := app.Listen(":" + port); err != nil {
		logrus.WithError(err).Fatal("Server stopped")
	}
}

func frontendURL() string {
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		return url
	}
	return "http://localhost:3000"
}
