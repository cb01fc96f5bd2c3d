package routes

import (
	"github.com/courtsidehq/padel_community/handlers"
	"github.com/courtsidehq/padel_community/middleware"
	"github.com/gofiber/fiber/v2"
)

func SessionRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	sessions := api.Group("/communities/:communityId/sessions", middleware.Protected())
	sessions.Get("", handlers.ListCommunitySessions)

	manage := sessions.Group("", middleware.ManagerRequired())
	manage.Post("", handlers.CreateSession)
	manage.Put("/:sessionId", handlers.UpdateSession)
	manage.Post("/:sessionId/cancel", handlers.CancelSession)
	manage.Delete("/:sessionId", handlers.DeleteSession)
	manage.Get("/:sessionId/bookings", handlers.GetSessionBookings)

	api.Get("/sessions/:sessionId", middleware.Protected(), handlers.GetSession)
}
