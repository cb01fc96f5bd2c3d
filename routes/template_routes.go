package routes

import (
	"github.com/courtsidehq/padel_community/handlers"
	"github.com/courtsidehq/padel_community/middleware"
	"github.com/gofiber/fiber/v2"
)

func TemplateRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	templates := api.Group("/communities/:communityId/templates", middleware.Protected(), middleware.ManagerRequired())
	templates.Post("", handlers.CreateTemplate)
	templates.Get("", handlers.ListTemplates)
	templates.Put("/:templateId", handlers.UpdateTemplate)
	templates.Delete("/:templateId", handlers.DeleteTemplate)
	templates.Post("/bulk-publish/preview", handlers.PreviewBulkPublish)
	templates.Post("/bulk-publish", handlers.BulkPublishSessions)
}
