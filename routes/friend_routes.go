package routes

import (
	"github.com/courtsidehq/padel_community/handlers"
	"github.com/courtsidehq/padel_community/middleware"
	"github.com/gofiber/fiber/v2"
)

func FriendRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	friends := api.Group("/friends", middleware.Protected())
	friends.Get("", handlers.ListFriends)
	friends.Get("/requests", handlers.ListPendingFriendRequests)
	friends.Post("/requests", handlers.SendFriendRequest)
	friends.Put("/requests/:friendshipId", handlers.RespondToFriendRequest)
	friends.Delete("/:friendshipId", handlers.RemoveFriend)
}
