package routes

import (
	"github.com/courtsidehq/padel_community/handlers"
	"github.com/courtsidehq/padel_community/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	me := api.Group("/users/me", middleware.Protected())
	me.Get("", handlers.GetProfile)
	me.Put("", handlers.UpdateProfile)
	me.Get("/communities", handlers.GetMyCommunities)
	me.Get("/receipts", handlers.GetMyReceipts)
}
